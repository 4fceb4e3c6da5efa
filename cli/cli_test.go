package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	t.Parallel()

	if suppressBanner() {
		t.Skip("SCREENSTACK_NO_BANNER is set")
	}

	out := Banner("scenario", 12, AlignCenter)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "╒══════════╕", lines[0])
	assert.Equal(t, "│ scenario │", lines[1])
	assert.Equal(t, "└──────────┘", lines[2])
}

func TestBannerTruncates(t *testing.T) {
	t.Parallel()

	if suppressBanner() {
		t.Skip("SCREENSTACK_NO_BANNER is set")
	}

	out := Banner("a-very-long-scenario-name", 10, AlignLeft)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "│a-very-…│", lines[1])
}

func TestPad(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ab   ", pad("ab", 5, AlignLeft))
	assert.Equal(t, "   ab", pad("ab", 5, AlignRight))
	assert.Equal(t, " ab  ", pad("ab", 5, AlignCenter))
	assert.Equal(t, "abcde", pad("abcde", 5, AlignCenter))
}

func TestDivider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "┠───┨\n", Divider(5))
	assert.Equal(t, "\n", Divider(1))
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	rows, cols, err := parseSize("24 80\n")
	require.NoError(t, err)
	assert.Equal(t, uint(24), rows)
	assert.Equal(t, uint(80), cols)

	_, _, err = parseSize("garbage")
	require.Error(t, err)
}

func TestSortedUnique(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"menu", "screen2", "screen10"},
		sortedUnique([]string{"screen10", "menu", "screen2", "menu"}))
}

func TestPrefixSearcher(t *testing.T) {
	t.Parallel()

	items := []string{doneChoice, "Menu", "options"}
	search := prefixSearcher(items, func(i int) bool { return i == 0 })

	assert.False(t, search("[", 0))
	assert.True(t, search("me", 1))
	assert.False(t, search("", 1))
	assert.False(t, search("me", 2))
}

func TestParseFloatAtLeast(t *testing.T) {
	t.Parallel()

	v, err := parseFloatAtLeast("0.5", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)

	_, err = parseFloatAtLeast("-1", 0)
	require.Error(t, err)

	_, err = parseFloatAtLeast("fast", 0)
	require.Error(t, err)
}
