package channels

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/demidbot/demidbot/pkg/bus"
	"github.com/demidbot/demidbot/pkg/logger"
)

// Synthetic identities for the local console session. The console is a
// single private chat between the operator and the bot.
const (
	consoleChatID   = int64(1)
	consoleUserID   = int64(1)
	consoleUsername = "console"
)

// ConsoleChannel is a local readline chat for talking to the persona
// without a platform token.
type ConsoleChannel struct {
	*BaseChannel
	rl     *readline.Instance
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsoleChannel(messageBus *bus.MessageBus) *ConsoleChannel {
	return &ConsoleChannel{
		BaseChannel: NewBaseChannel("console", messageBus, nil),
		done:        make(chan struct{}),
	}
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".demidbot_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	c.rl = rl

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setRunning(true)

	logger.InfoC("console", "Console chat started (exit or Ctrl+C to quit)")
	go c.readLoop(runCtx)
	return nil
}

func (c *ConsoleChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	if c.rl != nil {
		_ = c.rl.Close()
	}
	select {
	case <-c.done:
	case <-ctx.Done():
	}
	return nil
}

func (c *ConsoleChannel) BotID() int64 {
	return 0
}

func (c *ConsoleChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if msg.Text == "" {
		return nil
	}
	fmt.Printf("\nдемид> %s\n\n", msg.Text)
	return nil
}

func (c *ConsoleChannel) readLoop(ctx context.Context) {
	defer close(c.done)

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return
			}
			if ctx.Err() != nil {
				return
			}
			logger.WarnCF("console", "Read error", map[string]any{"error": err.Error()})
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return
		}

		c.Publish(bus.InboundMessage{
			ChatID:     consoleChatID,
			ChatKind:   bus.ChatPrivate,
			SenderID:   consoleUserID,
			SenderName: consoleUsername,
			Text:       input,
		})
	}
}
