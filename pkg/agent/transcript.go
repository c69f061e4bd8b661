package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/demidbot/demidbot/pkg/memory"
)

// EmptyChatPlaceholder is what the generation prompt gets for a chat with no
// stored history. In-character on purpose: the persona treats a blank chat
// as a joke, not as a null state.
const EmptyChatPlaceholder = "(Чат пуст. Как моя голова перед парой.)"

const anonymousLabel = "Аноним"

// TranscriptBuilder renders a bounded window of recent chat history into one
// plain-text block. The output is consumed only as opaque prompt context;
// nothing downstream parses it back apart.
type TranscriptBuilder struct {
	store  *memory.SQLiteStore
	window int
}

func NewTranscriptBuilder(store *memory.SQLiteStore, window int) *TranscriptBuilder {
	if window <= 0 {
		window = 25
	}
	return &TranscriptBuilder{store: store, window: window}
}

// Render returns the chat's recent history, one line per message in
// chronological order. Storage errors propagate: a wrong transcript is worse
// than no reply.
func (b *TranscriptBuilder) Render(ctx context.Context, chatID int64) (string, error) {
	msgs, err := b.store.Recent(ctx, chatID, b.window)
	if err != nil {
		return "", fmt.Errorf("render transcript: %w", err)
	}

	if len(msgs) == 0 {
		return EmptyChatPlaceholder, nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		name := anonymousLabel
		if m.Username != "" {
			name = "@" + m.Username
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format("15:04"), name, m.Text))
	}
	return strings.Join(lines, "\n"), nil
}
