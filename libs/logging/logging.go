package logging

import (
	"context"
	"io"
	"os"
	"time"

	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

var (
	// we are not promising to get every log message in the log
	// anymore, when it comes down to it, we would rather the service
	// runs than fails on log writing contention.  This will let us
	// see how many logs we are dropping
	droppedLogTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropped_log_events_total",
			Help: "A counter for the number of dropped log messages",
		},
	)
	Writer io.WriteCloser
)

func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func init() {
	prometheus.MustRegister(droppedLogTotal)
}

// SetupLoggerWithLevel - helper to setup a logger and associate with context with a given log level
func SetupLoggerWithLevel(ctx context.Context, level zerolog.Level) (context.Context, *zerolog.Logger) {
	ctx = context.WithValue(ctx, appctx.LogLevelCTXKey, level)
	return SetupLogger(ctx)
}

// SetupLogger - helper to setup the process logger and associate with context
//
// It replaces Writer, so it is meant to be called once at startup.
func SetupLogger(ctx context.Context) (context.Context, *zerolog.Logger) {
	writer, ok := ctx.Value(appctx.LogWriterCTXKey).(io.Writer)

	env, err := appctx.GetStringFromContext(ctx, appctx.EnvironmentCTXKey)
	if err != nil {
		// if not in context, default to local
		env = "local"
	}

	if ok {
		Writer = NopCloser(writer)
	} else if env != "local" {
		// this log writer uses a ring buffer and drops messages that cannot be processed
		// in a timely manner
		Writer = diode.NewWriter(os.Stdout, 1000, 20*time.Millisecond, func(missed int) {
			droppedLogTotal.Add(float64(missed))
		})
	} else {
		Writer = NopCloser(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	l := newLogger(ctx, Writer)

	return l.WithContext(ctx), &l
}

// newLogger always prints out the timestamp and honours the level and debug override in ctx.
func newLogger(ctx context.Context, w io.Writer) zerolog.Logger {
	// defaults to info level
	level, _ := appctx.GetLogLevelFromContext(ctx, appctx.LogLevelCTXKey)

	l := zerolog.New(w).With().Timestamp().Logger().Level(level)

	// debug override
	if debug, ok := ctx.Value(appctx.DebugLoggingCTXKey).(bool); ok && debug {
		l = l.Level(zerolog.DebugLevel)
	}

	return l
}

// fallback is used when ctx carries no logger; it leaves Writer alone.
func fallback(ctx context.Context) *zerolog.Logger {
	w, ok := ctx.Value(appctx.LogWriterCTXKey).(io.Writer)
	if !ok {
		w = os.Stdout
	}

	l := newLogger(ctx, w)
	return &l
}

// Logger - get a module logger from ctx, or a standalone one when ctx has none
func Logger(ctx context.Context, prefix string) *zerolog.Logger {
	l, err := appctx.GetLogger(ctx)
	if err != nil {
		l = fallback(ctx)
	}
	sl := l.With().Str("module", prefix).Logger()
	return &sl
}

// FromContext - retrieves logger from context or gets a new logger if not present
func FromContext(ctx context.Context) *zerolog.Logger {
	logger, err := appctx.GetLogger(ctx)
	if err != nil {
		return fallback(ctx)
	}
	return logger
}
