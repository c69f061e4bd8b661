package agent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/demidbot/demidbot/pkg/bus"
	"github.com/demidbot/demidbot/pkg/config"
	"github.com/demidbot/demidbot/pkg/logger"
	"github.com/demidbot/demidbot/pkg/memory"
	"github.com/demidbot/demidbot/pkg/persona"
)

// Loop is the single event loop: it drains inbound messages from the bus,
// feeds the memory store, evaluates the reply trigger and publishes
// generated replies back for delivery. Per-chat causal order holds because
// one goroutine processes events sequentially.
type Loop struct {
	bus         *bus.MessageBus
	store       *memory.SQLiteStore
	responder   *persona.Responder
	transcripts *TranscriptBuilder
	nameTokens  []string
	botUsername string
	botID       atomic.Int64
	running     atomic.Bool
}

func NewLoop(cfg *config.Config, msgBus *bus.MessageBus, store *memory.SQLiteStore, responder *persona.Responder) *Loop {
	return &Loop{
		bus:         msgBus,
		store:       store,
		responder:   responder,
		transcripts: NewTranscriptBuilder(store, cfg.Memory.ContextWindow),
		nameTokens:  cfg.Persona.NameTokens,
		botUsername: cfg.Persona.BotUsername,
	}
}

// SetBotIdentity records the platform-assigned numeric identity of the bot.
// Channels learn it when they connect; mention matching and reply authorship
// need it.
func (l *Loop) SetBotIdentity(id int64) {
	l.botID.Store(id)
}

func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)

	for l.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
			msg, ok := l.bus.ConsumeInbound(ctx)
			if !ok {
				continue
			}
			if err := l.handleInbound(ctx, msg); err != nil {
				logger.ErrorCF("agent", "Failed to process inbound message", map[string]any{
					"turn_id": msg.TurnID,
					"chat_id": msg.ChatID,
					"error":   err.Error(),
				})
			}
		}
	}
	return nil
}

func (l *Loop) Stop() {
	l.running.Store(false)
}

func (l *Loop) handleInbound(ctx context.Context, msg bus.InboundMessage) error {
	// Messages without text or a resolvable sender never reach memory.
	if msg.Text == "" || msg.SenderID == 0 {
		logger.DebugCF("agent", "Dropping message without text or sender", map[string]any{
			"chat_id": msg.ChatID,
		})
		return nil
	}

	if msg.TurnID == "" {
		msg.TurnID = uuid.NewString()
	}

	if quip, ok := persona.Quip(msg.Text); ok {
		// Canned command replies bypass memory entirely.
		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel:   msg.Channel,
			ChatID:    msg.ChatID,
			Text:      quip,
			InReplyTo: msg.MessageID,
			PlainText: true,
		})
		return nil
	}

	// Every plain message feeds the context window, answered or not.
	if err := l.store.Append(ctx, msg.ChatID, msg.SenderID, msg.SenderName, msg.Text); err != nil {
		return fmt.Errorf("store inbound message: %w", err)
	}

	botID := l.botID.Load()
	if !ShouldReply(msg, botID, l.nameTokens) {
		return nil
	}

	transcript, err := l.transcripts.Render(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("build transcript: %w", err)
	}

	answer := l.responder.Reply(ctx, transcript, msg.Text)

	// The reply joins the same partition so future transcripts stay causal.
	if err := l.store.Append(ctx, msg.ChatID, botID, l.botUsername, answer); err != nil {
		logger.ErrorCF("agent", "Failed to store bot reply", map[string]any{
			"turn_id": msg.TurnID,
			"chat_id": msg.ChatID,
			"error":   err.Error(),
		})
	}

	l.bus.PublishOutbound(bus.OutboundMessage{
		Channel:   msg.Channel,
		ChatID:    msg.ChatID,
		Text:      answer,
		InReplyTo: msg.MessageID,
		PlainText: true,
	})

	logger.DebugCF("agent", "Reply generated", map[string]any{
		"turn_id": msg.TurnID,
		"chat_id": msg.ChatID,
	})
	return nil
}
