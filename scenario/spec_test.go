package scenario

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	sc := parse(t, `
states:
  - name: a
steps:
  - at: 0
    transition: a
`)

	assert.Equal(t, defaultTick, sc.tick())
	assert.Equal(t, defaultMaxTicks, sc.maxTicks())
	assert.Nil(t, sc.TimeScale)
	assert.Empty(t, sc.Path())
}

func TestParse_Durations(t *testing.T) {
	t.Parallel()

	sc := parse(t, `
tick: 5ms
time_scale: 0.25
states:
  - name: a
steps:
  - at: 3
    time_scale: 2
`)

	assert.Equal(t, 5*time.Millisecond, sc.tick())
	require.NotNil(t, sc.TimeScale)
	assert.InDelta(t, 0.25, *sc.TimeScale, 0)
	require.NotNil(t, sc.Steps[0].TimeScale)
	assert.InDelta(t, 2.0, *sc.Steps[0].TimeScale, 0)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown field", "states: []\nbogus: 1\n", ErrInvalidScenario},
		{"unknown state", "states: [{name: a}]\nsteps: [{at: 0, transition: b}]\n", ErrUnknownState},
		{"duplicate state", "states: [{name: a}, {name: a}]\n", ErrInvalidScenario},
		{"unnamed state", "states: [{enter_ticks: 1}]\n", ErrInvalidScenario},
		{"negative ticks", "states: [{name: a, exit_ticks: -1}]\n", ErrInvalidScenario},
		{"empty step", "states: [{name: a}]\nsteps: [{at: 0}]\n", ErrInvalidScenario},
		{
			"out of order",
			"states: [{name: a}]\nsteps: [{at: 2, transition: a}, {at: 1, interrupt: true}]\n",
			ErrInvalidScenario,
		},
		{"bad expectation", "states: [{name: a}]\nsteps: [{at: 0, transition: a, expect: maybe}]\n", ErrInvalidScenario},
		{"bad final", "states: [{name: a}]\nexpect_final: z\n", ErrUnknownState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(strings.NewReader(tc.doc))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadFile_NameFromPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/unnamed-run.yml"

	require.NoError(t, writeFile(path, "states: [{name: a}]\nsteps: [{at: 0, transition: a}]\n"))

	sc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed-run", sc.Name)
	assert.Equal(t, path, sc.Path())

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	_, err = LoadFile(dir + "/missing.yaml")
	require.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
