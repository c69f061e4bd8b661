package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/demidbot/demidbot/pkg/bus"
	"github.com/demidbot/demidbot/pkg/config"
	"github.com/demidbot/demidbot/pkg/logger"
	"github.com/demidbot/demidbot/pkg/persona"
)

// Manager owns the configured channels and routes outbound replies
// back to the channel they came from.
type Manager struct {
	channels map[string]Channel
	bus      *bus.MessageBus
	wg       sync.WaitGroup
}

func NewManager(cfg *config.Config, messageBus *bus.MessageBus) (*Manager, error) {
	m := &Manager{
		channels: make(map[string]Channel),
		bus:      messageBus,
	}

	if cfg.Channels.Discord.Token != "" {
		discord, err := NewDiscordChannel(cfg.Channels.Discord, messageBus)
		if err != nil {
			return nil, fmt.Errorf("init discord channel: %w", err)
		}
		m.channels["discord"] = discord
	}

	if cfg.Channels.Console.Enabled {
		m.channels["console"] = NewConsoleChannel(messageBus)
	}

	if len(m.channels) == 0 {
		return nil, fmt.Errorf("no channels configured: set a discord token or enable the console")
	}

	return m, nil
}

func (m *Manager) StartAll(ctx context.Context) error {
	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("start %s channel: %w", name, err)
		}
		logger.InfoCF("channels", "Channel started", map[string]any{"channel": name})
	}

	m.wg.Add(1)
	go m.dispatchOutbound(ctx)
	return nil
}

func (m *Manager) StopAll(ctx context.Context) error {
	var firstErr error
	for name, ch := range m.channels {
		if !ch.IsRunning() {
			continue
		}
		if err := ch.Stop(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to stop channel", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.wg.Wait()
	return firstErr
}

// BotID returns the platform identity of the named channel, or zero when
// the channel is absent or has none.
func (m *Manager) BotID(name string) int64 {
	if ch, ok := m.channels[name]; ok {
		return ch.BotID()
	}
	return 0
}

func (m *Manager) Channel(name string) (Channel, bool) {
	ch, ok := m.channels[name]
	return ch, ok
}

func (m *Manager) dispatchOutbound(ctx context.Context) {
	defer m.wg.Done()

	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		m.deliver(ctx, msg)
	}
}

// deliver sends a reply to its channel. On failure it retries once with
// markup stripped, then drops the message; delivery problems never take
// the agent down.
func (m *Manager) deliver(ctx context.Context, msg bus.OutboundMessage) {
	ch, ok := m.channels[msg.Channel]
	if !ok {
		logger.WarnCF("channels", "Outbound message for unknown channel", map[string]any{
			"channel": msg.Channel,
		})
		return
	}

	err := ch.Send(ctx, msg)
	if err == nil {
		return
	}
	logger.WarnCF("channels", "Send failed, retrying without markup", map[string]any{
		"channel": msg.Channel,
		"chat_id": msg.ChatID,
		"error":   err.Error(),
	})

	retry := msg
	retry.Text = persona.StripMarkup(msg.Text)
	retry.PlainText = true
	if err := ch.Send(ctx, retry); err != nil {
		logger.ErrorCF("channels", "Dropping undeliverable message", map[string]any{
			"channel": msg.Channel,
			"chat_id": msg.ChatID,
			"error":   err.Error(),
		})
	}
}
