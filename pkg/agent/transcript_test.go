package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/demidbot/demidbot/pkg/memory"
)

func newTranscriptStore(t *testing.T) *memory.SQLiteStore {
	t.Helper()
	store, err := memory.NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"), 30)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRender_EmptyChatPlaceholder(t *testing.T) {
	store := newTranscriptStore(t)
	b := NewTranscriptBuilder(store, 25)

	got, err := b.Render(context.Background(), 404)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != EmptyChatPlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestRender_LineFormatAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTranscriptStore(t)
	b := NewTranscriptBuilder(store, 25)

	if err := store.Append(ctx, 1, 10, "masha", "привет всем"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, 1, 11, "", "ку"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := b.Render(ctx, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "@masha: привет всем") {
		t.Fatalf("first line = %q, want named author first", lines[0])
	}
	if !strings.Contains(lines[1], "Аноним: ку") {
		t.Fatalf("second line = %q, want anonymous label", lines[1])
	}
	if !strings.HasPrefix(lines[0], "[") || !strings.Contains(lines[0], "]") {
		t.Fatalf("first line = %q, want time-of-day prefix", lines[0])
	}
}

func TestRender_WindowBounded(t *testing.T) {
	ctx := context.Background()
	store := newTranscriptStore(t)
	b := NewTranscriptBuilder(store, 3)

	for _, text := range []string{"один", "два", "три", "четыре", "пять"} {
		if err := store.Append(ctx, 2, 1, "u", text); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := b.Render(ctx, 2)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected window of 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "три") || !strings.Contains(lines[2], "пять") {
		t.Fatalf("window should hold the newest messages chronologically: %q", got)
	}
}
