package observability

import (
	"time"

	"github.com/yungbote/modulegate-backend/internal/modules/progression"
)

// ProgressionHooks adapts Metrics to the engine's telemetry port. A nil
// registry yields hooks that record nothing.
func ProgressionHooks(m *Metrics) progression.Hooks {
	if m == nil {
		return nopProgressionHooks{}
	}
	return m
}

type nopProgressionHooks struct{}

func (nopProgressionHooks) ObserveAction(string, string, time.Duration) {}
func (nopProgressionHooks) IncQuizSubmission(string)                    {}
func (nopProgressionHooks) IncModuleCompletion(string)                  {}
func (nopProgressionHooks) AddPointsAwarded(int)                        {}
