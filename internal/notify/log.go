package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// LogNotifier writes completion events to the log. It stands in for
// RedisNotifier when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log-notifier" }

func (n *LogNotifier) Handle(_ context.Context, rec model.Transition) error {
	if rec.To != model.StatusDone {
		return nil
	}
	ev := completedEvent(rec)
	n.logger.Info("task completed",
		zap.String("type", ev.Type),
		zap.Int64("task_id", ev.TaskID),
		zap.String("transition_id", ev.TransitionID),
		zap.String("actor", ev.ActorID),
		zap.Time("occurred_at", ev.OccurredAt),
	)
	return nil
}
