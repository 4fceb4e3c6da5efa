// Package tests carries per-test metadata through context.Context so that
// log lines and transition records produced during a test can be correlated
// with the test that caused them.
//
//	func TestMyFeature(t *testing.T) {
//	    ctx := tests.GetUniqueContext(t)
//	    // logger.Get(ctx) now tags every line with test and test_id
//	}
package tests

import (
	"context"
	"testing"

	"github.com/amp-labs/screenflow/envutil"
	"github.com/amp-labs/screenflow/logger"
	"github.com/google/uuid"
)

type contextKey string

const (
	// testIdKey holds a UUID prefixed with "test-".
	testIdKey contextKey = "testId"
	// testNameKey holds t.Name(), including any subtest path.
	testNameKey contextKey = "testName"
	// testTestKey holds the *testing.T itself.
	testTestKey contextKey = "testTest"
)

// GetUniqueContext derives a context from t.Context() carrying a unique test
// identifier and the test name. Both are also attached as logging values, so
// logger.Get(ctx) tags every line with them.
func GetUniqueContext(t *testing.T) context.Context {
	t.Helper()

	id := "test-" + uuid.New().String()

	ctx := context.WithValue(t.Context(), testTestKey, t)
	ctx = context.WithValue(ctx, testIdKey, id)
	ctx = context.WithValue(ctx, testNameKey, t.Name())

	return logger.With(ctx, "test", t.Name(), "test_id", id)
}

// CheckSkipped skips the test when the boolean environment variable envKey is
// true. defaultValue[0] is used when the variable is unset; a true
// defaultValue[1] inverts the check.
func CheckSkipped(t *testing.T, envKey string, defaultValue ...bool) {
	t.Helper()

	defl := false
	invert := false

	if len(defaultValue) > 0 {
		defl = defaultValue[0]
	}

	if len(defaultValue) > 1 {
		invert = defaultValue[1]
	}

	shouldSkip := envutil.Bool(envKey, envutil.Default(defl)).ValueOrElse(defl)

	original := shouldSkip

	if invert {
		shouldSkip = !shouldSkip
	}

	if shouldSkip {
		t.Skipf("Skipping test because of environment variable: %s=%v",
			envKey, original)
	}
}

func getValue[T any](ctx context.Context, key contextKey) (T, bool) {
	val, ok := ctx.Value(key).(T)

	return val, ok
}

// GetTestName retrieves the test name from the context.
func GetTestName(ctx context.Context) (string, bool) {
	return getValue[string](ctx, testNameKey)
}

// GetTestId retrieves the unique test identifier from the context.
func GetTestId(ctx context.Context) (string, bool) { //nolint:revive
	return getValue[string](ctx, testIdKey)
}

// GetTest retrieves the testing.T instance from the context.
func GetTest(ctx context.Context) (*testing.T, bool) {
	return getValue[*testing.T](ctx, testTestKey)
}

// Info is the test metadata stored in a context.
type Info struct {
	Test *testing.T `json:"-"`
	Id   string     `json:"id"` //nolint:revive
	Name string     `json:"name"`
}

// GetTestInfo retrieves the test ID and name together. The boolean is false
// when neither is present.
func GetTestInfo(ctx context.Context) (Info, bool) {
	id, idOk := GetTestId(ctx)
	name, nameOk := GetTestName(ctx)
	test, _ := GetTest(ctx)

	return Info{
		Test: test,
		Id:   id,
		Name: name,
	}, idOk || nameOk
}
