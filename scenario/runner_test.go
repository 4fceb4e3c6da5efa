package scenario

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amp-labs/screenflow/logger"
	"github.com/amp-labs/screenflow/statemachine"
	"github.com/amp-labs/screenflow/tests"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()

	sc, err := LoadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return sc
}

func parse(t *testing.T, doc string) *Scenario {
	t.Helper()

	sc, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	return sc
}

func TestRun_Basic(t *testing.T) {
	t.Parallel()

	ctx := tests.GetUniqueContext(t)

	report, err := Run(ctx, load(t, "1-basic.yaml"),
		WithLogger(statemachine.NewSlogLogger(slogt.New(t))))
	require.NoError(t, err)

	assert.True(t, report.Passed(), report.String())
	assert.Equal(t, "basic", report.Scenario)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, uint64(6), report.Ticks)
	assert.Equal(t, 120*time.Millisecond, report.Elapsed)
	assert.Equal(t, "game", report.Final)
	assert.True(t, report.Settled)

	assert.Equal(t, []Event{
		{Tick: 0, Kind: EventAccepted, State: "menu", Detail: "from none"},
		{Tick: 1, Kind: EventEnterStarted, State: "menu", Detail: "from none"},
		{Tick: 2, Kind: EventEnterDone, State: "menu"},
		{Tick: 2, Kind: EventSettled, State: "menu", Detail: "from none"},
		{Tick: 2, Kind: EventAccepted, State: "game", Detail: "from menu"},
		{Tick: 3, Kind: EventExitStarted, State: "menu", Detail: "to game"},
		{Tick: 3, Kind: EventEnterStarted, State: "game", Detail: "from menu"},
		{Tick: 5, Kind: EventExitDone, State: "menu"},
		{Tick: 6, Kind: EventEnterDone, State: "game"},
		{Tick: 6, Kind: EventSettled, State: "game", Detail: "from menu"},
	}, report.Events)
}

func TestRun_Interrupts(t *testing.T) {
	t.Parallel()

	report, err := Run(tests.GetUniqueContext(t), load(t, "2-interrupt.yaml"))
	require.NoError(t, err)

	assert.True(t, report.Passed(), report.String())
	assert.Equal(t, uint64(8), report.Ticks)

	done := report.Filter(EventEnterDone)
	require.Len(t, done, 3)
	assert.Equal(t, Event{Tick: 4, Kind: EventEnterDone, State: "b", Detail: "interrupted"}, done[1])
	assert.Equal(t, Event{Tick: 8, Kind: EventEnterDone, State: "stubborn"}, done[2])

	exits := report.Filter(EventExitDone)
	require.Len(t, exits, 2)
	assert.Equal(t, Event{Tick: 4, Kind: EventExitDone, State: "a", Detail: "interrupted"}, exits[0])

	assert.Equal(t, 2, report.Count(EventInterrupt))
	assert.Equal(t, 4, report.Count(EventStateInterrupted))
}

func TestRun_Rejections(t *testing.T) {
	t.Parallel()

	report, err := Run(tests.GetUniqueContext(t), load(t, "10-rejections.yaml"))
	require.NoError(t, err)

	assert.True(t, report.Passed(), report.String())
	assert.Equal(t, uint64(6), report.Ticks)
	assert.Equal(t, 100*time.Millisecond, report.Elapsed)
	assert.Equal(t, 2, report.Count(EventRejected))
	assert.Equal(t, 2, report.Count(EventNoop))
	assert.Equal(t, 1, report.Count(EventTimeScale))

	accepted := report.Filter(EventAccepted)
	require.Len(t, accepted, 2)
	assert.Equal(t, "from a, forced", accepted[1].Detail)
}

func TestRun_UnmetExpectations(t *testing.T) {
	t.Parallel()

	sc := parse(t, `
name: unmet
states:
  - name: a
    enter_ticks: 2
  - name: b
steps:
  - at: 0
    transition: a
  - at: 1
    transition: b
expect_final: b
`)

	report, err := Run(tests.GetUniqueContext(t), sc)
	require.NoError(t, err)

	assert.False(t, report.Passed())
	require.Len(t, report.Failures, 2)
	assert.Contains(t, report.Failures[0], "expected accepted, got illegal_state")
	assert.Contains(t, report.Failures[1], "expected final state b, got a")
	assert.Contains(t, report.String(), "FAIL unmet")
}

func TestRun_TickLimit(t *testing.T) {
	t.Parallel()

	sc := parse(t, `
name: stuck
max_ticks: 5
states:
  - name: slow
    enter_ticks: 100
steps:
  - at: 0
    transition: slow
`)

	report, err := Run(tests.GetUniqueContext(t), sc)
	require.NoError(t, err)

	assert.False(t, report.Passed())
	assert.False(t, report.Settled)
	assert.Equal(t, uint64(5), report.Ticks)
	assert.Contains(t, report.Failures[0], "did not finish within 5 ticks")
}

func TestRun_FailingEnter(t *testing.T) {
	t.Parallel()

	sc := parse(t, `
name: failing
states:
  - name: broken
    fail_enter: true
steps:
  - at: 0
    transition: broken
`)

	report, err := Run(tests.GetUniqueContext(t), sc)
	require.NoError(t, err)

	assert.True(t, report.Passed())
	require.Len(t, report.Filter(EventSideFailed), 1)
	assert.Contains(t, report.Filter(EventSideFailed)[0].Detail, ErrScriptedFailure.Error())
	assert.Equal(t, "from none, with errors", report.Filter(EventSettled)[0].Detail)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(tests.GetUniqueContext(t))
	cancel()

	_, err := Run(ctx, load(t, "1-basic.yaml"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunAll(t *testing.T) {
	t.Parallel()

	scenarios, err := LoadDir("testdata")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	assert.Equal(t, "basic", scenarios[0].Name)
	assert.Equal(t, "interrupt", scenarios[1].Name)
	assert.Equal(t, "rejections", scenarios[2].Name)
	assert.Equal(t, filepath.Join("testdata", "10-rejections.yaml"), scenarios[2].Path())

	reports, err := RunAll(tests.GetUniqueContext(t), scenarios)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	runIDs := make(map[string]bool)

	for i, report := range reports {
		require.NotNil(t, report)
		assert.Equal(t, scenarios[i].Name, report.Scenario)
		assert.True(t, report.Passed(), report.String())

		runIDs[report.RunID] = true
	}

	assert.Len(t, runIDs, 3)
}

func TestRun_MutedContextLogsNothing(t *testing.T) { //nolint:paralleltest
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer

	logger.ConfigureLoggingWithOptions(logger.Options{JSON: true, MinLevel: slog.LevelDebug, Output: &buf})

	report, err := Run(logger.WithMuted(t.Context(), true), load(t, "10-rejections.yaml"))
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Empty(t, buf.String())

	_, err = Run(t.Context(), load(t, "10-rejections.yaml"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Scenario finished")
	assert.Contains(t, buf.String(), "Transition rejected")
}
