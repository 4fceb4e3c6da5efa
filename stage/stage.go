// Package stage identifies the deployment environment screenstack runs in,
// from the RUNNING_ENV environment variable. Telemetry reports it as the
// deployment environment of every span and log record.
package stage

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amp-labs/screenflow/envutil"
)

// Stage represents a deployment environment.
type Stage string

// ErrUnrecognizedStage is returned for values that name no known stage.
var ErrUnrecognizedStage = errors.New("unrecognized stage")

const (
	// Unknown indicates the stage could not be determined.
	Unknown Stage = "unknown"
	// Local indicates a developer's machine.
	Local Stage = "local"
	// Test indicates unit tests.
	Test Stage = "test"
	// Dev indicates the shared development environment.
	Dev Stage = "dev"
	// Staging indicates the pre-production environment.
	Staging Stage = "staging"
	// Prod indicates production.
	Prod Stage = "prod"
)

func (s Stage) String() string {
	return string(s)
}

// Parse converts a stage name. Unknown is not accepted.
func Parse(s string) (Stage, error) {
	switch Stage(s) {
	case Local, Test, Dev, Staging, Prod:
		return Stage(s), nil
	case Unknown:
		fallthrough
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnrecognizedStage, s)
	}
}

// Current returns the stage named by RUNNING_ENV, determined once and cached.
func Current() Stage {
	return runningStage()
}

var runningStage = sync.OnceValue(func() Stage { //nolint:gochecknoglobals
	value := getRunningStage()

	if value != Unknown {
		slog.Debug("Configured stage", "stage", value)
	}

	return value
})

// getRunningStage reads RUNNING_ENV. Unset or invalid values fall back to
// Test under go test and to Unknown otherwise.
func getRunningStage() Stage {
	env := envutil.Map(envutil.String("RUNNING_ENV"), Parse)

	if flag.Lookup("test.v") != nil {
		return env.ValueOrElse(Test)
	}

	return env.ValueOrElse(Unknown)
}
