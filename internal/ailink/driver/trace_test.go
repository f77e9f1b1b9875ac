package driver

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")

	cleanup, err := EnableTracing(path)
	require.NoError(t, err)
	require.True(t, IsTracingEnabled())

	Trace(TraceEntry{Provider: "anthropic", Endpoint: "/v1/messages", StatusCode: 200})
	Trace(TraceEntry{Provider: "anthropic", Endpoint: "/v1/messages", Error: "boom"})
	cleanup()
	require.False(t, IsTracingEnabled())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck // test cleanup

	var entries []TraceEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry TraceEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	assert.Equal(t, 200, entries[0].StatusCode)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, "boom", entries[1].Error)
}

func TestTraceWithoutTracerIsNoop(t *testing.T) {
	DisableTracing()
	Trace(TraceEntry{Provider: "anthropic"})
	assert.False(t, IsTracingEnabled())
}
