package query

import (
	"context"
	"runtime"
	"time"

	"github.com/shibukawa/dynquery/expr"
)

// LoggerFunc receives QueryLogEntry events.
type LoggerFunc func(context.Context, QueryLogEntry)

// LoggerOpt configures optional logger behaviour passed to WithLogger.
// SlowQueryThreshold suppresses entries of successful executions faster than the threshold.
type LoggerOpt struct {
	IncludeStack       bool
	StackDepth         int
	SlowQueryThreshold time.Duration
}

// QueryLogEntry represents a single query execution event.
// Rows is the number of elements produced, or -1 for scalar results.
type QueryLogEntry struct {
	Expression string
	ResultType string
	StartAt    time.Time
	EndAt      time.Time
	Duration   time.Duration
	Rows       int
	StackTrace []runtime.Frame
	Error      string
}

// loggingConfig controls query logging behaviour stored on context.
type loggingConfig struct {
	logger             LoggerFunc
	includeStack       bool
	stackDepth         int
	slowQueryThreshold time.Duration
}

type loggerKey struct{}

// WithLogger stores logging configuration on the context.
func WithLogger(ctx context.Context, logger LoggerFunc, cfg ...LoggerOpt) context.Context {
	var opt LoggerOpt
	if len(cfg) > 0 {
		opt = cfg[0]
	}

	if opt.IncludeStack && opt.StackDepth <= 0 {
		opt.StackDepth = 16
	}

	if opt.SlowQueryThreshold < 0 {
		opt.SlowQueryThreshold = 0
	}

	return context.WithValue(ctx, loggerKey{}, &loggingConfig{
		logger:             logger,
		includeStack:       opt.IncludeStack,
		stackDepth:         opt.StackDepth,
		slowQueryThreshold: opt.SlowQueryThreshold,
	})
}

func loggingFrom(ctx context.Context) *loggingConfig {
	cfg, _ := ctx.Value(loggerKey{}).(*loggingConfig)
	if cfg == nil || cfg.logger == nil {
		return nil
	}

	return cfg
}

// executionLogger coordinates the logging lifecycle of one execution.
// A nil logger ignores every call.
type executionLogger struct {
	cfg     *loggingConfig
	node    expr.Node
	startAt time.Time
	rows    int
	err     error
}

func newExecutionLogger(ctx context.Context, n expr.Node) *executionLogger {
	cfg := loggingFrom(ctx)
	if cfg == nil {
		return nil
	}

	return &executionLogger{cfg: cfg, node: n, startAt: time.Now(), rows: -1}
}

func (l *executionLogger) setRows(n int) {
	if l == nil {
		return
	}

	l.rows = n
}

func (l *executionLogger) setErr(err error) {
	if l == nil {
		return
	}

	l.err = err
}

func (l *executionLogger) write(ctx context.Context) {
	if l == nil {
		return
	}

	entry := QueryLogEntry{
		Expression: l.node.String(),
		ResultType: l.node.Type().Name(),
		StartAt:    l.startAt,
		EndAt:      time.Now(),
		Rows:       l.rows,
	}
	entry.Duration = entry.EndAt.Sub(entry.StartAt)

	if l.err == nil && l.cfg.slowQueryThreshold > 0 && entry.Duration < l.cfg.slowQueryThreshold {
		return
	}

	if l.err != nil {
		entry.Error = l.err.Error()
	}

	if l.cfg.includeStack {
		entry.StackTrace = captureStackTrace(l.cfg.stackDepth)
	}

	l.cfg.logger(ctx, entry)
}

func captureStackTrace(depth int) []runtime.Frame {
	if depth <= 0 {
		depth = 16
	}

	pcs := make([]uintptr, depth)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var result []runtime.Frame

	for {
		frame, more := frames.Next()
		result = append(result, frame)

		if !more {
			break
		}
	}

	return result
}
