package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/demidbot/demidbot/pkg/bus"
	"github.com/demidbot/demidbot/pkg/config"
)

type fakeChannel struct {
	*BaseChannel
	failures int
	sent     []bus.OutboundMessage
}

func (c *fakeChannel) Start(ctx context.Context) error { c.setRunning(true); return nil }
func (c *fakeChannel) Stop(ctx context.Context) error  { c.setRunning(false); return nil }
func (c *fakeChannel) BotID() int64                    { return 0 }

func (c *fakeChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if c.failures > 0 {
		c.failures--
		return errors.New("simulated send failure")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func newTestManager(t *testing.T, fake *fakeChannel) *Manager {
	t.Helper()
	msgBus := bus.NewMessageBus()
	t.Cleanup(msgBus.Close)

	fake.BaseChannel = NewBaseChannel("fake", msgBus, nil)
	return &Manager{
		channels: map[string]Channel{"fake": fake},
		bus:      msgBus,
	}
}

func TestNewManager_RequiresAChannel(t *testing.T) {
	msgBus := bus.NewMessageBus()
	t.Cleanup(msgBus.Close)

	if _, err := NewManager(config.DefaultConfig(), msgBus); err == nil {
		t.Fatal("expected error when no channel is configured")
	}
}

func TestNewManager_ConsoleOnly(t *testing.T) {
	msgBus := bus.NewMessageBus()
	t.Cleanup(msgBus.Close)

	cfg := config.DefaultConfig()
	cfg.Channels.Console.Enabled = true

	m, err := NewManager(cfg, msgBus)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, ok := m.Channel("console"); !ok {
		t.Fatal("console channel should be registered")
	}
}

func TestDeliver_FirstAttemptSucceeds(t *testing.T) {
	fake := &fakeChannel{}
	m := newTestManager(t, fake)

	m.deliver(context.Background(), bus.OutboundMessage{Channel: "fake", ChatID: 1, Text: "*норм*"})

	if len(fake.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(fake.sent))
	}
	if fake.sent[0].Text != "*норм*" {
		t.Fatalf("first attempt must keep the text as-is, got %q", fake.sent[0].Text)
	}
}

func TestDeliver_RetriesWithMarkupStripped(t *testing.T) {
	fake := &fakeChannel{failures: 1}
	m := newTestManager(t, fake)

	m.deliver(context.Background(), bus.OutboundMessage{Channel: "fake", ChatID: 1, Text: "*жиза*, _брат_"})

	if len(fake.sent) != 1 {
		t.Fatalf("expected the retry to deliver, got %d sends", len(fake.sent))
	}
	if fake.sent[0].Text != "жиза, брат" {
		t.Fatalf("retry should strip markup, got %q", fake.sent[0].Text)
	}
	if !fake.sent[0].PlainText {
		t.Fatal("retry should be marked plain text")
	}
}

func TestDeliver_DropsAfterSecondFailure(t *testing.T) {
	fake := &fakeChannel{failures: 2}
	m := newTestManager(t, fake)

	// Must not panic or block; the message is logged and dropped.
	m.deliver(context.Background(), bus.OutboundMessage{Channel: "fake", ChatID: 1, Text: "пропало"})

	if len(fake.sent) != 0 {
		t.Fatalf("expected no delivery, got %d", len(fake.sent))
	}
}

func TestDeliver_UnknownChannelIgnored(t *testing.T) {
	fake := &fakeChannel{}
	m := newTestManager(t, fake)

	m.deliver(context.Background(), bus.OutboundMessage{Channel: "telegram", ChatID: 1, Text: "куда?"})

	if len(fake.sent) != 0 {
		t.Fatalf("expected no delivery, got %d", len(fake.sent))
	}
}
