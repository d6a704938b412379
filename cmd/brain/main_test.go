package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
)

func TestRequiredFlags(t *testing.T) {
	t.Run("reembed requires embedding-model", func(t *testing.T) {
		err := newApp().Run([]string{"brain", "reembed", "--db", "/tmp/test", "--tenant", "tenant-a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("reembed requires db", func(t *testing.T) {
		err := newApp().Run([]string{"brain", "reembed", "--tenant", "tenant-a", "--embedding-model", "test-model"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("ingest requires source-id", func(t *testing.T) {
		err := newApp().Run([]string{"brain", "ingest", "--db", "/tmp/test", "--tenant", "tenant-a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source-id")
	})

	t.Run("query requires tenant", func(t *testing.T) {
		err := newApp().Run([]string{"brain", "query", "--db", "/tmp/test", "lantern"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tenant")
	})

	t.Run("queue list rejects unknown status", func(t *testing.T) {
		err := newApp().Run([]string{"brain", "queue", "list", "--db", "/tmp/test", "--status", "bogus"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status")
	})
}

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		input    string
		expected core.QueueStatus
	}{
		{"", 0},
		{"queued", core.StatusQueued},
		{"processing", core.StatusProcessing},
		{"completed", core.StatusCompleted},
		{"failed", core.StatusFailed},
		{"cancelled", core.StatusCancelled},
		{"FAILED", core.StatusFailed},
	}

	for _, tc := range testCases {
		status, err := parseStatus(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.expected, status, "input %q", tc.input)
	}

	_, err := parseStatus("done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestParseEntryID(t *testing.T) {
	id, err := parseEntryID("42")
	require.NoError(t, err)
	assert.Equal(t, core.ID(42), id)

	_, err = parseEntryID("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	_, err = parseEntryID("abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entry id")
}

func TestSetupLogger(t *testing.T) {
	loggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := loggerApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		err := loggerApp().Run([]string{"test", "--log-level", "WaRn"})
		require.NoError(t, err)
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := loggerApp().Run([]string{"test", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("default log level is info", func(t *testing.T) {
		err := loggerApp().Run([]string{"test"})
		require.NoError(t, err)
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short", firstLine("short"))
	assert.Equal(t, "first", firstLine("first\nsecond"))

	long := firstLine(string(make([]byte, 150)))
	assert.Len(t, long, 103)
}
