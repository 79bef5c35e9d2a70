package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	req := require.New(t)
	req.Equal(slog.LevelDebug, parseLevel("DEBUG"))
	req.Equal(slog.LevelWarn, parseLevel("warning"))
	req.Equal(slog.LevelError, parseLevel("error"))
	req.Equal(slog.LevelInfo, parseLevel(""))
}

func TestJSONOutsideDevelopment(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := newLogger(&buf, "info", "production")

	log.Debug("hidden")
	log.Info("shown", "user_id", "u1")

	var entry map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &entry))
	req.Equal("shown", entry["msg"])
	req.Equal("u1", entry["user_id"])
	req.Equal("bazaar-api", entry["service"])
}
