package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/model"
)

func TestParseMonthFlag(t *testing.T) {
	t.Run("explicit month", func(t *testing.T) {
		got, err := parseMonthFlag("2026-07")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("empty defaults to current month", func(t *testing.T) {
		got, err := parseMonthFlag("")
		require.NoError(t, err)
		assert.Equal(t, model.MonthStart(time.Now().UTC()), got)
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		for _, value := range []string{"2026-13", "July 2026", "2026/07", "2026-07-01"} {
			_, err := parseMonthFlag(value)
			assert.Error(t, err, "value %q", value)
		}
	})
}
