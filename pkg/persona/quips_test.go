package persona

import (
	"strings"
	"testing"
)

func TestQuip_RecognizedCommands(t *testing.T) {
	for _, cmd := range []string{"/start", "/mood", "/sovet", "/status"} {
		reply, ok := Quip(cmd)
		if !ok {
			t.Fatalf("command %q not recognized", cmd)
		}
		if reply == "" {
			t.Fatalf("command %q produced empty reply", cmd)
		}
	}
}

func TestQuip_BotHandleSuffixAndArguments(t *testing.T) {
	if _, ok := Quip("/mood@demid_bot"); !ok {
		t.Fatalf("command with bot handle suffix not recognized")
	}
	if _, ok := Quip("/sovet про экзамен"); !ok {
		t.Fatalf("command with trailing arguments not recognized")
	}
}

func TestQuip_NonCommandsIgnored(t *testing.T) {
	for _, text := range []string{"привет", "", "mood", "/unknown"} {
		if reply, ok := Quip(text); ok {
			t.Fatalf("text %q unexpectedly matched a command: %q", text, reply)
		}
	}
}

func TestQuip_MoodDrawsFromTable(t *testing.T) {
	reply, ok := Quip("/mood")
	if !ok {
		t.Fatalf("mood not recognized")
	}
	matched := false
	for _, mood := range moods {
		if strings.Contains(reply, mood) {
			matched = true
			break
		}
	}
	if !matched {
		t.Fatalf("mood reply %q not drawn from the table", reply)
	}
}
