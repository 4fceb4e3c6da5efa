// Package envutil reads typed configuration from environment variables.
//
//	rate := envutil.Int[int]("SCREENSTACK_TICK_RATE",
//	    envutil.Default(60), envutil.Positive[int]()).ValueOrFatal()
package envutil

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

func get(key string) Reader[string] {
	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok,
		value:   val,
	}
}

func apply[T any](rdr Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// String reads a raw string.
func String(key string, opts ...Option[string]) Reader[string] {
	return apply(get(key), opts)
}

// Bool reads a boolean as accepted by strconv.ParseBool.
func Bool(key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(get(key), func(s string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(s))
	}), opts)
}

// Int reads a base-10 signed integer.
func Int[I integer](key string, opts ...Option[I]) Reader[I] {
	return apply(Map(get(key), func(s string) (I, error) {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)

		return I(v), err
	}), opts)
}

// Float64 reads a floating point number.
func Float64(key string, opts ...Option[float64]) Reader[float64] {
	return apply(Map(get(key), func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}), opts)
}

// Duration reads a value in time.ParseDuration syntax, e.g. "250ms".
func Duration(key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(get(key), func(s string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(s))
	}), opts)
}

// SlogLevel reads a level name such as "debug" or "WARN".
func SlogLevel(key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(get(key), func(s string) (slog.Level, error) {
		var level slog.Level

		err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s))))

		return level, err
	}), opts)
}
