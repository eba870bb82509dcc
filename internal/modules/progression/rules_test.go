package progression

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedRulesMatchDefaults(t *testing.T) {
	t.Setenv(rulesPathEnv, "")
	got := LoadRules(nil)
	if got != DefaultRules() {
		t.Fatalf("embedded rules drifted from defaults: %+v", got)
	}
}

func TestLoadRules_OverrideAndFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("max_attempts: 5\naction_cooldown: 500ms\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	t.Setenv(rulesPathEnv, path)
	got := LoadRules(nil)
	if got.MaxAttempts != 5 || got.ActionCooldown != 500*time.Millisecond {
		t.Fatalf("override not applied: %+v", got)
	}
	if got.PassThresholdPercent != 50 || got.BadgeSuffix != " Master" {
		t.Fatalf("unset keys should keep defaults: %+v", got)
	}

	if err := os.WriteFile(path, []byte("max_attempts: 0\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if got := LoadRules(nil); got != DefaultRules() {
		t.Fatalf("invalid rules should fall back to defaults: %+v", got)
	}
}

func TestBadgeName(t *testing.T) {
	if got := DefaultRules().BadgeName("  Forklift Safety "); got != "Forklift Safety Master" {
		t.Fatalf("unexpected badge name %q", got)
	}
}
