package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Title  string `json:"title"`
	Points int    `json:"points"`
}

func TestMemory_GetReportsAgeAndExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := m.Set(ctx, "module:1:content", payload{Title: "t", Points: 10}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(30 * time.Second)
	var got payload
	age, ok, err := m.Get(ctx, "module:1:content", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if age != 30*time.Second {
		t.Fatalf("age: want 30s got %s", age)
	}
	if got.Title != "t" || got.Points != 10 {
		t.Fatalf("unexpected payload: %+v", got)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "module:1:content", &got); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestMemory_MissAndDelete(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	var got payload
	if _, ok, err := m.Get(ctx, "nope", &got); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	_ = m.Set(ctx, "k", payload{Title: "x"})
	_ = m.Delete(ctx, "k")
	if _, ok, _ := m.Get(ctx, "k", &got); ok {
		t.Fatalf("expected miss after Delete")
	}
}
