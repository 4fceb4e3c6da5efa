package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioDir = filepath.Join("..", "..", "scenario", "testdata") //nolint:gochecknoglobals

func unsetEnv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) { //nolint:paralleltest
	unsetEnv(t, "SCREENSTACK_TICK_RATE")
	unsetEnv(t, "SCREENSTACK_TIME_SCALE")
	unsetEnv(t, "SCREENSTACK_FADE_TIME")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, defaultTickRate, cfg.TickRate)
	assert.InDelta(t, defaultTimeScale, cfg.TimeScale, 1e-9)
	assert.Equal(t, defaultFadeTime, cfg.FadeTime)
	assert.Equal(t, time.Second/60, cfg.tickInterval())
}

func TestLoadConfigOverrides(t *testing.T) { //nolint:paralleltest
	t.Setenv("SCREENSTACK_TICK_RATE", "30")
	t.Setenv("SCREENSTACK_TIME_SCALE", "0.5")
	t.Setenv("SCREENSTACK_FADE_TIME", "1s")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.TickRate)
	assert.InDelta(t, 0.5, cfg.TimeScale, 1e-9)
	assert.Equal(t, time.Second, cfg.FadeTime)
}

func TestLoadConfigRejectsZeroTickRate(t *testing.T) { //nolint:paralleltest
	t.Setenv("SCREENSTACK_TICK_RATE", "0")

	_, err := loadConfig()
	require.Error(t, err)
}

func TestLoadScenarios(t *testing.T) {
	t.Parallel()

	scenarios, err := loadScenarios([]string{
		scenarioDir,
		filepath.Join(scenarioDir, "1-basic.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	assert.Equal(t, scenarios[0].Name, scenarios[3].Name)

	_, err = loadScenarios([]string{filepath.Join(scenarioDir, "missing.yaml")})
	require.Error(t, err)
}

func TestPrintReports(t *testing.T) {
	t.Parallel()

	scenarios, err := loadScenarios([]string{scenarioDir})
	require.NoError(t, err)

	reports, err := scenario.RunAll(t.Context(), scenarios)
	require.NoError(t, err)

	var out bytes.Buffer

	failed := printReports(&out, append(reports, nil), true)

	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "PASS "+scenarios[0].Name+"\n")
	assert.Contains(t, out.String(), "3 passed, 1 failed\n")
}

func TestSessionStatus(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cfg := &config{TickRate: 50, TimeScale: 2, FadeTime: 100 * time.Millisecond}

	sess, err := newSession(t.Context(), &out, cfg, []string{"title", "menu"})
	require.NoError(t, err)
	t.Cleanup(sess.close)

	require.NoError(t, sess.stack.Show(t.Context(), "title"))

	for range 5 {
		require.NoError(t, sess.sched.Tick(20*time.Millisecond))
	}

	sess.status()

	assert.Contains(t, out.String(), "state title (previous none)")
	assert.Contains(t, out.String(), "tick 5, time scale 2.00")
}

func TestNewSessionRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := newSession(t.Context(), &bytes.Buffer{}, &config{TickRate: 1, TimeScale: 1, FadeTime: time.Second},
		[]string{"menu", "menu"})
	require.Error(t, err)
}

func TestLoopError(t *testing.T) {
	t.Parallel()

	require.NoError(t, loopError(coroutine.ErrStopped))
	require.NoError(t, loopError(context.Canceled))
	require.ErrorIs(t, loopError(coroutine.ErrNegativeDelta), coroutine.ErrNegativeDelta)
}
