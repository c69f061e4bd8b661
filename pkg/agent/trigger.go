package agent

import (
	"strings"

	"github.com/demidbot/demidbot/pkg/bus"
)

// ShouldReply decides whether an inbound message warrants a generated reply.
// Pure function, no I/O. A message qualifies when any of these holds:
//
//  1. the chat is private;
//  2. the message explicitly mentions the bot's identity;
//  3. the trimmed, lowercased text starts with one of the persona's name
//     tokens (e.g. "демид" or its latin transliteration "demid").
//
// Everything else is ingested silently: stored for future context, never
// answered.
func ShouldReply(msg bus.InboundMessage, botID int64, nameTokens []string) bool {
	if msg.ChatKind == bus.ChatPrivate {
		return true
	}

	for _, id := range msg.Mentions {
		if id == botID {
			return true
		}
	}

	text := strings.ToLower(strings.TrimSpace(msg.Text))
	for _, token := range nameTokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.HasPrefix(text, token) {
			return true
		}
	}

	return false
}
