package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(in))
		})
	}
}

func TestWriter(t *testing.T) {
	_, isConsole := writer(Config{Format: "console", Output: "stderr"}).(zerolog.ConsoleWriter)
	assert.True(t, isConsole)
	assert.Equal(t, os.Stderr, writer(Config{Format: "json", Output: "stderr"}))
	assert.Equal(t, os.Stdout, writer(Config{Format: "json"}))
}

func TestRequestID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestEngineLogger_Assigned(t *testing.T) {
	var buf bytes.Buffer
	l := NewEngineLoggerFrom(zerolog.New(&buf).Level(zerolog.DebugLevel))

	prev, cur := int64(1), int64(5)
	ctx := ContextWithRequestID(context.Background(), "req-9")
	l.Assigned(ctx, "s1", &prev, &cur, true)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "s1", entry["shift_id"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, true, entry["changed"])
	assert.EqualValues(t, 1, entry["previous_employee_id"])
	assert.EqualValues(t, 5, entry["employee_id"])
}

func TestEngineLogger_HazardsFound(t *testing.T) {
	var buf bytes.Buffer
	l := NewEngineLoggerFrom(zerolog.New(&buf))

	l.HazardsFound(context.Background(), "2017-02", 0)
	assert.Zero(t, buf.Len(), "无隐患时不输出")

	l.HazardsFound(context.Background(), "2017-02", 2)
	assert.Contains(t, buf.String(), `"count":2`)

	buf.Reset()
	l.Ranked(context.Background(), "Grocery", "s1", 8, time.Millisecond)
	assert.Contains(t, buf.String(), `"candidates":8`)
}
