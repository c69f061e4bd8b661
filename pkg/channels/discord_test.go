package channels

import (
	"strings"
	"testing"
)

func TestSplitMessage_ShortMessageUntouched(t *testing.T) {
	got := splitMessage("короткий ответ", 2000)
	if len(got) != 1 || got[0] != "короткий ответ" {
		t.Fatalf("unexpected split: %#v", got)
	}
}

func TestSplitMessage_BreaksOnWordBoundary(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("слово ", 100))
	chunks := splitMessage(content, 120)

	for i, chunk := range chunks {
		if len(chunk) > 120 {
			t.Fatalf("chunk %d exceeds limit: %d bytes", i, len(chunk))
		}
		if strings.HasPrefix(chunk, " ") {
			t.Fatalf("chunk %d starts with whitespace: %q", i, chunk)
		}
	}
	if strings.Join(chunks, " ") != content {
		t.Fatalf("content lost across chunks")
	}
}

func TestParseSnowflake(t *testing.T) {
	id, err := parseSnowflake("123456789012345678")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 123456789012345678 {
		t.Fatalf("id = %d", id)
	}

	if _, err := parseSnowflake("not-a-snowflake"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}
