package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndParseName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, time.December, 31, 23, 59, 58, 7000, time.UTC)
	name := FormatName("3f1c2a9e-7d1b-4c3e-9a51-2b8f0e6d4c10", 8, ts, ".png")
	assert.Equal(t, "3f1c2a9e-7d1b-4c3e-9a51-2b8f0e6d4c10_8_20251231_235958_000007.png", name)

	parsed, err := ParseName(name)
	require.NoError(t, err)
	assert.Equal(t, "3f1c2a9e-7d1b-4c3e-9a51-2b8f0e6d4c10", parsed.TaskID)
	assert.Equal(t, 8, parsed.Slot)
	assert.True(t, ts.Equal(parsed.CreatedAt))
	assert.Equal(t, ".png", parsed.Ext)
}

func TestFormatName_OrdersByCreationTime(t *testing.T) {
	t.Parallel()

	earlier := time.Date(2026, time.January, 1, 0, 0, 0, 999000, time.UTC)
	later := earlier.Add(time.Microsecond)

	a, err := ParseName(FormatName("b", 0, earlier, ".png"))
	require.NoError(t, err)
	b, err := ParseName(FormatName("a", 0, later, ".png"))
	require.NoError(t, err)

	assert.True(t, a.CreatedAt.Before(b.CreatedAt))
}

func TestFormatName_DistinctSlots(t *testing.T) {
	t.Parallel()

	ts := time.Now()
	seen := map[string]bool{}
	for slot := 0; slot < 9; slot++ {
		name := FormatName("task", slot, ts, ".png")
		assert.False(t, seen[name])
		seen[name] = true
	}
}

func TestParseName_Invalid(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"legacy.png",
		"task_x_20260101_000000_000000.png",
		"task_1_2026-01-01_000000_000000.png",
		"task_1_20260101_000000_12.png",
		"_1_20260101_000000_000000.png",
	} {
		_, err := ParseName(name)
		assert.ErrorIs(t, err, ErrInvalidReference, name)
	}
}
