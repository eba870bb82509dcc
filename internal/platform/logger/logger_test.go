package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValueRedactsAndHashes(t *testing.T) {
	if got := sanitizeValue("db_dsn", "postgres://u:p@h/db"); got != "[REDACTED]" {
		t.Fatalf("dsn should be redacted, got %v", got)
	}
	got, ok := sanitizeValue("user_id", "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed").(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("user_id should be hashed, got %v", got)
	}
	if sanitizeValue("module_id", "m1") != "m1" {
		t.Fatalf("module_id should pass through")
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"lesson_index", 2, "dangling"})
	if len(out) != 3 {
		t.Fatalf("want 3 entries, got %d", len(out))
	}
	if out[2] != "dangling" {
		t.Fatalf("dangling key lost: %v", out)
	}
}

func TestNopLoggerIsUsable(t *testing.T) {
	log := NewNop().With("component", "test")
	log.Info("hello", "user_id", "abc")
	log.Sync()
}
