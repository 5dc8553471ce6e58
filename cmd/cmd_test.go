package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexRefusesEmptyURL(t *testing.T) {
	// An empty or whitespace URL must fail before any network or config access.
	err := runIndex(&cobra.Command{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "URL is required")
}

func TestHistoryRange(t *testing.T) {
	resetFlags := func() {
		flagHistoryFrom = ""
		flagHistoryTo = ""
		flagHistoryLastDays = 0
	}

	t.Run("no flags means unbounded", func(t *testing.T) {
		resetFlags()
		from, to, err := historyRange()
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})

	t.Run("explicit dates parsed", func(t *testing.T) {
		resetFlags()
		flagHistoryFrom = "2025-01-01"
		flagHistoryTo = "2025-01-31"

		from, to, err := historyRange()
		require.NoError(t, err)
		require.NotNil(t, from)
		require.NotNil(t, to)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *from)
		assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *to)
	})

	t.Run("last-days wins over dates", func(t *testing.T) {
		resetFlags()
		flagHistoryFrom = "2020-01-01"
		flagHistoryLastDays = 7

		from, to, err := historyRange()
		require.NoError(t, err)
		require.NotNil(t, from)
		require.NotNil(t, to)
		assert.True(t, from.After(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		resetFlags()
		flagHistoryFrom = "01/01/2025"

		_, _, err := historyRange()
		assert.Error(t, err)
	})
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "migrate", "index", "index-file", "ask", "search", "history", "products", "version"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}
