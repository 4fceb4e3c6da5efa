package envutil

import (
	"cmp"
	"fmt"
)

// Option modifies a Reader. Typed constructors such as Bool and Duration
// accept options so callers can declare defaults and validation inline.
type Option[T any] func(Reader[T]) Reader[T]

// Default provides a value used when the variable is unset.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithDefault(dfl)
	}
}

// Validate runs f on a present value; a non-nil error poisons the Reader.
func Validate[T any](f func(T) error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.Map(func(val T) (T, error) {
			return val, f(val)
		})
	}
}

// Positive rejects zero and negative values.
func Positive[T cmp.Ordered]() Option[T] {
	return Validate(func(val T) error {
		var zero T

		if val <= zero {
			return fmt.Errorf("%w: %v is not positive", ErrBadEnvVar, val)
		}

		return nil
	})
}
