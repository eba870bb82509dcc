package ctxutil

import (
	"context"
	"testing"
)

func TestRequestDataRoundTrip(t *testing.T) {
	ctx := WithRequestData(context.Background(), &RequestData{UserID: "u1"})
	if got := UserID(ctx); got != "u1" {
		t.Fatalf("UserID: want=u1 got=%q", got)
	}
	if UserID(context.Background()) != "" {
		t.Fatalf("expected empty user id on bare context")
	}
}

func TestLogFields(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	fields := LogFields(ctx)
	if len(fields) != 4 || fields[1] != "t" || fields[3] != "r" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if LogFields(context.Background()) != nil {
		t.Fatalf("expected nil fields without trace data")
	}
}
