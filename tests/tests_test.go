package tests

import (
	"strings"
	"testing"

	"github.com/amp-labs/screenflow/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUniqueContext(t *testing.T) {
	t.Parallel()

	ctx := GetUniqueContext(t)

	info, ok := GetTestInfo(ctx)
	require.True(t, ok)
	assert.Equal(t, t.Name(), info.Name)
	assert.True(t, strings.HasPrefix(info.Id, "test-"))
	assert.Same(t, t, info.Test)

	other := GetUniqueContext(t)
	otherID, ok := GetTestId(other)
	require.True(t, ok)
	assert.NotEqual(t, info.Id, otherID)

	assert.NotNil(t, logger.Get(ctx))
}

func TestGetTestInfo_Missing(t *testing.T) {
	t.Parallel()

	_, ok := GetTestInfo(t.Context())
	assert.False(t, ok)
}

func TestCheckSkipped(t *testing.T) {
	t.Setenv("SCREENFLOW_SKIP_ME", "true")

	t.Run("skips when set", func(t *testing.T) {
		CheckSkipped(t, "SCREENFLOW_SKIP_ME")
		t.Fatal("should have been skipped")
	})

	t.Run("inverted runs", func(t *testing.T) {
		CheckSkipped(t, "SCREENFLOW_SKIP_ME", false, true)
	})
}
