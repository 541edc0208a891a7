package overlay

import (
	"context"
	"fmt"

	"github.com/goliatone/go-overlay/pkg/activity"
)

// activityObserver translates overlay events into activity events.
type activityObserver[K comparable] struct {
	emitter *activity.Emitter
	value   func(Event[K]) any
	onError func(error)
}

// newActivityObserver returns nil when no hooks are configured. value, when
// set, supplies the new value attached to the emitted event.
func newActivityObserver[K comparable](cfg config, value func(Event[K]) any) Observer[K] {
	if len(cfg.activityHooks) == 0 {
		return nil
	}
	return &activityObserver[K]{
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: true,
			Channel: cfg.activityChannel,
		}),
		value:   value,
		onError: cfg.activityErrors,
	}
}

func (o *activityObserver[K]) Notify(event Event[K]) {
	input := activity.OverlayEventInput{Key: fmt.Sprint(event.Key)}
	if !event.View.IsZero() {
		input.ViewID = event.View.String()
	}
	if o.value != nil {
		input.NewValue = o.value(event)
	}
	if event.Removed != nil {
		input.OldValue = event.Removed
	}

	var built activity.Event
	switch event.Kind {
	case EventKeyAdded:
		built = activity.BuildKeyAddedEvent(input)
	case EventKeyRemoved:
		built = activity.BuildKeyRemovedEvent(input)
	case EventBaseChanged:
		built = activity.BuildKeyUpdatedEvent(input)
	case EventOverrideSet:
		built = activity.BuildOverrideUpdatedEvent(input)
	case EventOverrideRemoved:
		built = activity.BuildOverrideRemovedEvent(input)
	default:
		return
	}

	if err := o.emitter.Emit(context.Background(), built); err != nil && o.onError != nil {
		o.onError(err)
	}
}
