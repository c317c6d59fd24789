package context

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GetStringFromContext - given a CTXKey return the string value from the context if it exists
func GetStringFromContext(ctx context.Context, key CTXKey) (string, error) {
	v := ctx.Value(key)
	if v == nil {
		return "", ErrNotInContext
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", ErrValueWrongType
}

// GetBoolFromContext - given a CTXKey return the bool value from the context if it exists
func GetBoolFromContext(ctx context.Context, key CTXKey) (bool, error) {
	v := ctx.Value(key)
	if v == nil {
		return false, ErrNotInContext
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, ErrValueWrongType
}

// GetDurationFromContext - given a CTXKey return the duration value from the context if it exists
func GetDurationFromContext(ctx context.Context, key CTXKey) (time.Duration, error) {
	v := ctx.Value(key)
	if v == nil {
		return 0, ErrNotInContext
	}
	if d, ok := v.(time.Duration); ok {
		return d, nil
	}
	return 0, ErrValueWrongType
}

// GetLogLevelFromContext - given a CTXKey return the log level from the context, defaults to info
func GetLogLevelFromContext(ctx context.Context, key CTXKey) (zerolog.Level, error) {
	v := ctx.Value(key)
	if v == nil {
		return zerolog.InfoLevel, ErrNotInContext
	}
	if l, ok := v.(zerolog.Level); ok {
		return l, nil
	}
	return zerolog.InfoLevel, ErrValueWrongType
}

// GetLogger - return the logger value from the context if it exists
func GetLogger(ctx context.Context) (*zerolog.Logger, error) {
	l := zerolog.Ctx(ctx)
	if l == nil || l.GetLevel() == zerolog.Disabled {
		return nil, ErrNotInContext
	}
	return l, nil
}
