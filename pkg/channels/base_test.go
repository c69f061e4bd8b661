package channels

import (
	"context"
	"testing"

	"github.com/demidbot/demidbot/pkg/bus"
)

func TestIsAllowed(t *testing.T) {
	msgBus := bus.NewMessageBus()
	t.Cleanup(msgBus.Close)

	tests := []struct {
		name      string
		allowList []string
		senderID  int64
		username  string
		want      bool
	}{
		{"empty list admits everyone", nil, 42, "anyone", true},
		{"numeric id match", []string{"42"}, 42, "kostya", true},
		{"username match", []string{"kostya"}, 7, "kostya", true},
		{"username with @ prefix", []string{"@kostya"}, 7, "kostya", true},
		{"no match", []string{"42", "masha"}, 7, "kostya", false},
		{"blank entries ignored", []string{"", "  "}, 7, "kostya", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBaseChannel("test", msgBus, tt.allowList)
			if got := c.IsAllowed(tt.senderID, tt.username); got != tt.want {
				t.Errorf("IsAllowed(%d, %q) = %v, want %v", tt.senderID, tt.username, got, tt.want)
			}
		})
	}
}

func TestPublishStampsChannelName(t *testing.T) {
	msgBus := bus.NewMessageBus()
	t.Cleanup(msgBus.Close)

	c := NewBaseChannel("discord", msgBus, nil)
	c.Publish(bus.InboundMessage{ChatID: 1, SenderID: 2, Text: "привет"})

	msg, ok := msgBus.ConsumeInbound(context.Background())
	if !ok {
		t.Fatal("expected a published message")
	}
	if msg.Channel != "discord" {
		t.Errorf("Channel = %q, want %q", msg.Channel, "discord")
	}
}
