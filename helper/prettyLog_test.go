package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	levels := []struct {
		level slog.Level
		label string
	}{
		{slog.LevelDebug, "DEBUG:"},
		{slog.LevelInfo, "INFO:"},
		{slog.LevelWarn, "WARN:"},
		{slog.LevelError, "ERROR:"},
	}

	for _, tt := range levels {
		t.Run("Handle "+tt.label+" record", func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}})

			record := slog.NewRecord(time.Now(), tt.level, "turn answered", 0)
			record.AddAttrs(slog.String("session_id", "abc"))

			err := handler.Handle(ctx, record)
			require.NoError(t, err, "Expected Handle to not return an error")

			output := buf.String()
			assert.Contains(t, output, tt.label, "Expected output to contain level")
			assert.Contains(t, output, "turn answered", "Expected output to contain message")
			assert.Contains(t, output, "session_id", "Expected output to contain attribute key")
			assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, output, "Expected formatted timestamp")
		})
	}

	t.Run("Record without attributes prints empty object", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		err := handler.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelInfo, "plain", 0))

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "{}", "Expected empty JSON object for attributes")
	})

	t.Run("Logger attributes are kept", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{})).With(slog.String("component", "store"))

		logger.Info("started")

		assert.Contains(t, buf.String(), "component", "Expected With attributes in output")
		assert.Contains(t, buf.String(), "store")
	})

	t.Run("Level filter drops debug records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelInfo)

		logger.Debug("hidden")

		assert.Empty(t, buf.String(), "Expected debug record to be filtered")
	})
}
