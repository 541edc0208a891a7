package overlay

import "time"

// CombineLogEvent describes one expression combiner invocation.
type CombineLogEvent struct {
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// CombineLogger records expression combiner invocations.
type CombineLogger interface {
	LogCombine(CombineLogEvent)
}

// CombineLoggerFunc adapts a function to CombineLogger.
type CombineLoggerFunc func(CombineLogEvent)

// LogCombine implements CombineLogger.
func (f CombineLoggerFunc) LogCombine(event CombineLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopCombineLogger struct{}

func (noopCombineLogger) LogCombine(CombineLogEvent) {}
