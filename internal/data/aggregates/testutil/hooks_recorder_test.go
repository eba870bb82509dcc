package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("progress.claim_completion", "conflict", 10*time.Millisecond)
	h.ObserveOperation("progress.claim_completion", "success", 5*time.Millisecond)
	h.IncConflict("progress.claim_completion")
	h.IncRetry("progress.save_attempt")

	if len(h.Operations) != 2 {
		t.Fatalf("expected 2 op events, got %d", len(h.Operations))
	}
	if st, ok := h.LastStatus("progress.claim_completion"); !ok || st != "success" {
		t.Fatalf("LastStatus: got %q ok=%v", st, ok)
	}
	if _, ok := h.LastStatus("progress.unknown"); ok {
		t.Fatalf("unknown op should not be found")
	}
	if len(h.Conflicts) != 1 || len(h.Retries) != 1 || h.Retries[0] != "progress.save_attempt" {
		t.Fatalf("unexpected signals conflicts=%v retries=%v", h.Conflicts, h.Retries)
	}
}
