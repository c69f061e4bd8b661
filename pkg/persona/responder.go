// Package persona owns everything the bot says: prompt assembly for the
// generation provider, output sanitation, deterministic fallbacks and the
// static quip tables for auxiliary commands.
package persona

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/demidbot/demidbot/pkg/config"
	"github.com/demidbot/demidbot/pkg/logger"
	"github.com/demidbot/demidbot/pkg/providers"
)

const systemPrompt = `Ты — Демид, 17-летний школьник/студент. Ты умный, но ленивый, с сухим юмором, любишь мемы и ненавидишь "включать камеру на Zoom".
Говоришь на разговорном русском: "ща", "короче", "ну такое", "я в шоке", "это же не я — это мой аватар в панике".
Никогда не говоришь, что ты ИИ или бот. Ты — человек. Ты можешь ошибаться, шутить неудачно, "вспоминать", что вчера уже об этом говорили.

Правила:
- Ответ короткий: 1–2 предложения.
- Если не знаешь — придумай смешную отмазку (про бабушку, котлету в столовой, Wi-Fi в библиотеке).
- Используй контекст, чтобы быть персональным.`

const (
	fallbackServerDown   = "Чёт сервер упал. Как моя мотивация в понедельник утром 🥲"
	fallbackConnectivity = "Ошибка связи. Наверное, Wi-Fi в библиотеке опять лег 📶"

	errFragmentLimit = 60
)

// Responder turns a chat transcript and the triggering message into the
// persona's reply. Every failure path collapses into a fixed in-character
// string; Reply never fails from the caller's point of view.
type Responder struct {
	provider providers.LLMProvider
	gen      config.GenerationConfig
}

func NewResponder(provider providers.LLMProvider, gen config.GenerationConfig) *Responder {
	return &Responder{provider: provider, gen: gen}
}

// Reply asks the generation provider for the persona's answer to question,
// given the rendered transcript as opaque context.
func (r *Responder) Reply(ctx context.Context, transcript, question string) string {
	userPrompt := "Контекст чата:\n" + transcript + "\n\n" +
		"Последнее сообщение: " + question + "\n\n" +
		"Ответь как Демид:"

	timeout := time.Duration(r.gen.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.provider.Chat(callCtx, []providers.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, r.gen.Model, map[string]interface{}{
		"max_tokens":  r.gen.MaxTokens,
		"temperature": r.gen.Temperature,
		"top_p":       r.gen.TopP,
	})
	if err != nil {
		return r.fallback(err)
	}

	reply := Sanitize(resp.Content)
	if reply == "" {
		logger.WarnC("persona", "Provider returned empty reply, using fallback")
		return fallbackServerDown
	}
	return reply
}

func (r *Responder) fallback(err error) string {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		logger.ErrorCF("persona", "Provider rejected generation request", map[string]any{
			"status": apiErr.StatusCode,
			"error":  apiErr.Message,
		})
		return fallbackServerDown
	}

	logger.ErrorCF("persona", "Provider call failed", map[string]any{
		"error": err.Error(),
	})
	return fallbackConnectivity + " (подробнее: " + truncate(err.Error(), errFragmentLimit) + ")"
}

// Sanitize strips the emphasis markup models like to emit and trims
// surrounding whitespace.
func Sanitize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "*", ""))
}

// StripMarkup removes the markup characters that chat platforms reject in
// plain-text mode. Used by the delivery retry path.
func StripMarkup(text string) string {
	text = strings.ReplaceAll(text, "*", "")
	return strings.ReplaceAll(text, "_", "")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
