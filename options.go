package overlay

import "github.com/goliatone/go-overlay/pkg/activity"

// Option configures a Store or View at construction time.
type Option func(*config)

type config struct {
	activityHooks   activity.Hooks
	activityChannel string
	activityErrors  func(error)
	serializeBase   *bool
}

func applyOptions(opts []Option) config {
	cfg := config{}
	return cfg.with(opts)
}

func (cfg config) with(opts []Option) config {
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithActivityHooks forwards store and view events to hooks as activity
// events. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel sets the channel stamped on emitted activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.activityChannel = channel
	}
}

// WithActivityErrorHandler receives errors returned by activity hooks. Without
// a handler those errors are dropped since notifications cannot fail a
// committed mutation.
func WithActivityErrorHandler(handler func(error)) Option {
	return func(cfg *config) {
		cfg.activityErrors = handler
	}
}

// WithBaseSerialization overrides whether a View's Document carries the full
// store contents. Root views default to true, siblings and attached views to false.
func WithBaseSerialization(include bool) Option {
	return func(cfg *config) {
		cfg.serializeBase = &include
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
