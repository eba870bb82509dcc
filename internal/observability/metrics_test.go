package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAction("advance", "ok", 20*time.Millisecond)
	m.ObserveAction("advance", "ok", 30*time.Millisecond)
	m.IncQuizSubmission("pass")
	m.IncModuleCompletion("awarded")
	m.AddPointsAwarded(100)
	m.AddPointsAwarded(-5)
	m.ObserveAPI("POST", "/api/sessions/:id/advance", "200", time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`progression_actions_total{action="advance",status="ok"} 2`,
		`progression_quiz_submissions_total{result="pass"} 1`,
		`progression_module_completions_total{outcome="awarded"} 1`,
		`progression_points_awarded_total 100`,
		`progression_action_duration_seconds_count{action="advance"} 2`,
		`api_requests_total{method="POST",route="/api/sessions/:id/advance",status="200"} 1`,
		"# TYPE progression_action_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAction("open", "ok", time.Second)
	m.IncAggregateConflict("claim_completion")
	m.APIInflightInc()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route", "status"}, []string{`a"b`})
	if got != `{route="a\"b",status="unknown"}` {
		t.Fatalf("unexpected label string %s", got)
	}
	if withLe(got, "0.5") != `{route="a\"b",status="unknown",le="0.5"}` {
		t.Fatalf("unexpected le labels")
	}
}
