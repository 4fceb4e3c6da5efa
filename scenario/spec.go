// Package scenario runs scripted transition scenarios. A scenario declares
// states whose enter and exit tasks take a fixed number of ticks, then a
// timeline of transition and interrupt requests. Running it on a private
// scheduler produces a Report of everything the coordinator did.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"facette.io/natsort"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidScenario is returned for scenarios that fail validation.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrUnknownState is returned for steps naming a state that was not declared.
	ErrUnknownState = errors.New("unknown state")
)

const (
	defaultTick     = 20 * time.Millisecond
	defaultMaxTicks = 1000
)

// Expectation names the outcome a step expects from its transition request.
type Expectation string

const (
	ExpectAccepted        Expectation = "accepted"
	ExpectNoop            Expectation = "noop"
	ExpectIllegalState    Expectation = "illegal_state"
	ExpectInvalidArgument Expectation = "invalid_argument"
)

// Scenario is the YAML document describing one run.
type Scenario struct {
	Name      string        `yaml:"name"`
	Tick      time.Duration `yaml:"tick"`
	TimeScale *float64      `yaml:"time_scale"`
	// MaxTicks bounds the run when the last transition never settles.
	MaxTicks int         `yaml:"max_ticks"`
	States   []StateSpec `yaml:"states"`
	Steps    []Step      `yaml:"steps"`
	// ExpectFinal optionally names the state that must be current at the end.
	ExpectFinal string `yaml:"expect_final"`

	path string
}

// StateSpec declares one scripted state. EnterTicks and ExitTicks count the
// ticks a side runs for, including the tick it starts on; zero completes on
// the first tick.
type StateSpec struct {
	Name       string `yaml:"name"`
	EnterTicks int    `yaml:"enter_ticks"`
	ExitTicks  int    `yaml:"exit_ticks"`
	// IgnoreInterrupts makes the state run its full length regardless.
	IgnoreInterrupts bool `yaml:"ignore_interrupts"`
	// FailEnter makes the enter task return an error when it completes.
	FailEnter bool `yaml:"fail_enter"`
}

// Step is one timeline entry. At is the number of ticks that have run before
// the step applies; steps sharing an At apply in file order.
type Step struct {
	At         uint64      `yaml:"at"`
	Transition *string     `yaml:"transition"`
	Force      bool        `yaml:"force"`
	Interrupt  bool        `yaml:"interrupt"`
	TimeScale  *float64    `yaml:"time_scale"`
	Expect     Expectation `yaml:"expect"`
}

// Path is the file the scenario was loaded from, if any.
func (s *Scenario) Path() string {
	return s.path
}

// Parse decodes and validates a scenario.
func Parse(r io.Reader) (*Scenario, error) {
	var sc Scenario

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if err := sc.validate(); err != nil {
		return nil, err
	}

	return &sc, nil
}

// LoadFile parses the scenario stored at path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}

	defer f.Close() //nolint:errcheck

	sc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sc.path = path

	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return sc, nil
}

// LoadDir parses every .yaml and .yml file in dir, in natural file name order.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}

	natsort.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))

	for _, name := range names {
		sc, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		scenarios = append(scenarios, sc)
	}

	return scenarios, nil
}

func (s *Scenario) validate() error {
	var errs []error

	if s.Tick < 0 {
		errs = append(errs, fmt.Errorf("%w: negative tick %s", ErrInvalidScenario, s.Tick))
	}

	if s.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("%w: negative max_ticks %d", ErrInvalidScenario, s.MaxTicks))
	}

	declared := make(map[string]bool, len(s.States))

	for i, st := range s.States {
		switch {
		case st.Name == "":
			errs = append(errs, fmt.Errorf("%w: state %d has no name", ErrInvalidScenario, i))
		case declared[st.Name]:
			errs = append(errs, fmt.Errorf("%w: duplicate state %q", ErrInvalidScenario, st.Name))
		case st.EnterTicks < 0 || st.ExitTicks < 0:
			errs = append(errs, fmt.Errorf("%w: state %q has negative ticks", ErrInvalidScenario, st.Name))
		}

		declared[st.Name] = true
	}

	for i, step := range s.Steps {
		if step.Transition == nil && !step.Interrupt && step.TimeScale == nil {
			errs = append(errs, fmt.Errorf("%w: step %d does nothing", ErrInvalidScenario, i))
		}

		if step.Transition != nil && *step.Transition != "" && !declared[*step.Transition] {
			errs = append(errs, fmt.Errorf("%w: step %d: %w %q", ErrInvalidScenario, i, ErrUnknownState, *step.Transition))
		}

		switch step.Expect {
		case "", ExpectAccepted, ExpectNoop, ExpectIllegalState, ExpectInvalidArgument:
		default:
			errs = append(errs, fmt.Errorf("%w: step %d: unknown expectation %q", ErrInvalidScenario, i, step.Expect))
		}

		if i > 0 && step.At < s.Steps[i-1].At {
			errs = append(errs, fmt.Errorf("%w: step %d is out of order", ErrInvalidScenario, i))
		}
	}

	if s.ExpectFinal != "" && !declared[s.ExpectFinal] {
		errs = append(errs, fmt.Errorf("%w: expect_final: %w %q", ErrInvalidScenario, ErrUnknownState, s.ExpectFinal))
	}

	return errors.Join(errs...)
}

func (s *Scenario) tick() time.Duration {
	if s.Tick == 0 {
		return defaultTick
	}

	return s.Tick
}

func (s *Scenario) maxTicks() int {
	if s.MaxTicks == 0 {
		return defaultMaxTicks
	}

	return s.MaxTicks
}
