package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 5 * time.Second},
		{"3", 3 * time.Second},
		{"750ms", 750 * time.Millisecond},
		{"bogus", 5 * time.Second},
	}
	for _, tc := range cases {
		t.Setenv("ENVUTIL_TEST_DURATION", tc.raw)
		if got := Duration("ENVUTIL_TEST_DURATION", 5*time.Second, nil); got != tc.want {
			t.Fatalf("Duration(%q): want=%s got=%s", tc.raw, tc.want, got)
		}
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_BOOL", "YES")
	if !Bool("ENVUTIL_TEST_BOOL", false, nil) {
		t.Fatalf("expected true")
	}
	t.Setenv("ENVUTIL_TEST_INT", "x")
	if got := Int("ENVUTIL_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("expected default on parse failure, got %d", got)
	}
}

func TestCSV(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_CSV", " a, ,b ")
	got := CSV("ENVUTIL_TEST_CSV", "", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected csv: %v", got)
	}
}
