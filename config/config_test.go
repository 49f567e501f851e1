package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if cfg.ModerationModel != "omni-moderation-latest" {
		t.Fatalf("unexpected model: %q", cfg.ModerationModel)
	}
	if cfg.ModerationTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.ModerationTimeout)
	}
	if cfg.SystemAuthor != "convokeep" {
		t.Fatalf("unexpected system author: %q", cfg.SystemAuthor)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("BANNED_WORDS", "jerk, fool ,,scoundrel")

	cfg := Load()

	if cfg.HTTPPort != 9191 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	want := []string{"jerk", "fool", "scoundrel"}
	if len(cfg.BannedWords) != len(want) {
		t.Fatalf("unexpected wordlist: %v", cfg.BannedWords)
	}
	for i, w := range want {
		if cfg.BannedWords[i] != w {
			t.Fatalf("unexpected word at %d: %q", i, cfg.BannedWords[i])
		}
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg := Load()
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port, got %d", cfg.HTTPPort)
	}
}
