// Package zaplog bridges overlay logging and activity to go.uber.org/zap.
package zaplog

import (
	"context"

	overlay "github.com/goliatone/go-overlay"
	"github.com/goliatone/go-overlay/pkg/activity"
	"go.uber.org/zap"
)

// CombineLogger reports combiner evaluations: debug on success, warn when the
// expression failed and the override was used instead.
func CombineLogger(logger *zap.Logger) overlay.CombineLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return overlay.CombineLoggerFunc(func(event overlay.CombineLogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("expr", event.Expr),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("Combine expression failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("Combine expression evaluated", fields...)
	})
}

// ActivityHook writes every activity event as an info entry.
func ActivityHook(logger *zap.Logger) activity.ActivityHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		fields := []zap.Field{
			zap.String("verb", event.Verb),
			zap.String("object_type", event.ObjectType),
			zap.String("object_id", event.ObjectID),
			zap.String("channel", event.Channel),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.ActorID != "" {
			fields = append(fields, zap.String("actor_id", event.ActorID))
		}
		if len(event.Metadata) > 0 {
			fields = append(fields, zap.Any("metadata", event.Metadata))
		}
		logger.Info("Overlay activity", fields...)
		return nil
	})
}

// Observer logs raw store or view events at debug level.
func Observer[K comparable](logger *zap.Logger) overlay.Observer[K] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return overlay.ObserverFunc[K](func(event overlay.Event[K]) {
		fields := []zap.Field{
			zap.Stringer("kind", event.Kind),
			zap.Any("key", event.Key),
		}
		if !event.View.IsZero() {
			fields = append(fields, zap.Stringer("view", event.View))
		}
		if event.Removed != nil {
			fields = append(fields, zap.Any("removed", event.Removed))
		}
		logger.Debug("Overlay event", fields...)
	})
}
