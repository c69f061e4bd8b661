package channels

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/demidbot/demidbot/pkg/bus"
	"github.com/demidbot/demidbot/pkg/config"
	"github.com/demidbot/demidbot/pkg/logger"
)

const (
	sendTimeout         = 10 * time.Second
	discordMessageLimit = 2000
)

type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
	config  config.DiscordConfig
	botID   atomic.Int64
}

func NewDiscordChannel(cfg config.DiscordConfig, messageBus *bus.MessageBus) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", messageBus, cfg.AllowFrom),
		session:     session,
		config:      cfg,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	c.setRunning(true)

	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("get bot user: %w", err)
	}
	id, err := parseSnowflake(botUser.ID)
	if err != nil {
		return fmt.Errorf("parse bot user id: %w", err)
	}
	c.botID.Store(id)

	logger.InfoCF("discord", "Discord bot connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord bot")
	c.setRunning(false)

	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) BotID() int64 {
	return c.botID.Load()
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord bot not running")
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("chat ID is empty")
	}
	if msg.Text == "" {
		return nil
	}

	channelID := strconv.FormatInt(msg.ChatID, 10)
	for _, chunk := range splitMessage(msg.Text, discordMessageLimit) {
		if err := c.sendChunk(ctx, channelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage splits long replies into platform-sized chunks on line or
// word boundaries where possible.
func splitMessage(content string, limit int) []string {
	var messages []string

	for len(content) > 0 {
		if len(content) <= limit {
			messages = append(messages, content)
			break
		}

		msgEnd := -1
		for i := limit - 1; i >= 0 && limit-i <= 200; i-- {
			if content[i] == '\n' {
				msgEnd = i
				break
			}
		}
		if msgEnd <= 0 {
			for i := limit - 1; i >= 0 && limit-i <= 100; i-- {
				if content[i] == ' ' {
					msgEnd = i
					break
				}
			}
		}
		if msgEnd <= 0 {
			msgEnd = limit
		}

		messages = append(messages, content[:msgEnd])
		content = trimLeadingSpace(content[msgEnd:])
	}

	return messages
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\n' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}

func (c *DiscordChannel) sendChunk(ctx context.Context, channelID, content string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.session.ChannelMessageSend(channelID, content)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send discord message: %w", err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("send message timeout: %w", sendCtx.Err())
	}
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}
	if m.Author.ID == s.State.User.ID {
		return
	}
	// No text means nothing to store or answer.
	if m.Content == "" {
		return
	}

	senderID, err := parseSnowflake(m.Author.ID)
	if err != nil || senderID == 0 {
		logger.DebugCF("discord", "Dropping message without resolvable sender", map[string]any{
			"author_id": m.Author.ID,
		})
		return
	}
	if !c.IsAllowed(senderID, m.Author.Username) {
		logger.DebugCF("discord", "Message rejected by allowlist", map[string]any{
			"user_id": m.Author.ID,
		})
		return
	}

	chatID, err := parseSnowflake(m.ChannelID)
	if err != nil {
		logger.WarnCF("discord", "Unparseable channel id", map[string]any{
			"channel_id": m.ChannelID,
		})
		return
	}

	chatKind := bus.ChatGroup
	if m.GuildID == "" {
		chatKind = bus.ChatPrivate
	}

	mentions := make([]int64, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		if id, err := parseSnowflake(u.ID); err == nil {
			mentions = append(mentions, id)
		}
	}

	messageID, _ := parseSnowflake(m.ID)

	// Typing hint while the reply is generated. Only where a reply is
	// plausible: private chats and messages that mention the bot.
	if chatKind == bus.ChatPrivate || mentionsUser(m.Mentions, s.State.User.ID) {
		if err := s.ChannelTyping(m.ChannelID); err != nil {
			logger.DebugCF("discord", "Failed to send typing indicator", map[string]any{
				"error": err.Error(),
			})
		}
	}

	c.Publish(bus.InboundMessage{
		ChatID:     chatID,
		ChatKind:   chatKind,
		SenderID:   senderID,
		SenderName: m.Author.Username,
		Text:       m.Content,
		Mentions:   mentions,
		MessageID:  messageID,
	})
}

func mentionsUser(mentions []*discordgo.User, userID string) bool {
	for _, u := range mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func parseSnowflake(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
