package bus

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// CompletionNotifier publishes module completions onto a Bus.
type CompletionNotifier struct {
	bus Bus
	log *logger.Logger
}

var _ progression.Notifier = (*CompletionNotifier)(nil)

func NewCompletionNotifier(b Bus, log *logger.Logger) *CompletionNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &CompletionNotifier{bus: b, log: log.With("service", "CompletionNotifier")}
}

func (n *CompletionNotifier) NotifyCompletion(ctx context.Context, ev progression.CompletionEvent) error {
	if n == nil || n.bus == nil {
		return nil
	}
	data := map[string]any{
		"module_id":             ev.ModuleID.String(),
		"module_title":          ev.ModuleTitle,
		"overall_score_percent": ev.OverallScorePercent,
		"earned_points":         ev.EarnedPoints,
	}
	if ev.BadgeName != "" {
		data["badge_name"] = ev.BadgeName
	}
	err := n.bus.Publish(ctx, Event{
		ID:         uuid.New(),
		Type:       EventModuleCompleted,
		UserID:     ev.UserID,
		OccurredAt: ev.CompletedAt,
		Data:       data,
	})
	if err != nil {
		n.log.Warn("publish completion event failed", "module_id", ev.ModuleID, "error", err)
	}
	return err
}
