package configs

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLoggerLevels ensures each configured level maps to the matching slog level.
func TestLoggerLevels(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"err":     slog.LevelError,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, Logger{Level: in}.SlogLevel(), in)
	}
}

// TestLoggerHandlerFormat ensures the configured format and level shape handler output.
func TestLoggerHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(Logger{Level: "info", Format: "JSON"}.Handler(&buf)).Info("hello", slog.Int64("campaign_id", 3))
	assert.Contains(t, buf.String(), `"campaign_id":3`)

	buf.Reset()
	slog.New(Logger{Level: "error"}.Handler(&buf)).Info("dropped")
	assert.Empty(t, buf.String())
}
