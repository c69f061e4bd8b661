package channels

import (
	"context"
	"strconv"
	"strings"

	"github.com/demidbot/demidbot/pkg/bus"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	// BotID is the platform-assigned identity of the bot on this channel,
	// known after Start. Zero when the platform has no such notion.
	BotID() int64
}

type BaseChannel struct {
	bus       *bus.MessageBus
	name      string
	allowList []string
	running   bool
}

func NewBaseChannel(name string, messageBus *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       messageBus,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running
}

// IsAllowed checks the sender against the channel allowlist. Entries may be
// numeric ids or usernames (with or without a leading @). An empty allowlist
// admits everyone.
func (c *BaseChannel) IsAllowed(senderID int64, username string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	id := strconv.FormatInt(senderID, 10)
	for _, allowed := range c.allowList {
		candidate := strings.TrimSpace(strings.TrimPrefix(allowed, "@"))
		if candidate == "" {
			continue
		}
		if candidate == id || (username != "" && candidate == username) {
			return true
		}
	}

	return false
}

func (c *BaseChannel) Publish(msg bus.InboundMessage) {
	msg.Channel = c.name
	c.bus.PublishInbound(msg)
}

func (c *BaseChannel) setRunning(running bool) {
	c.running = running
}
