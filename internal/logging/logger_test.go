package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "info", time.UTC), "database")

	log.Info().Str("event", "db_migration_start").Msg("")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "database", entry["component"])
	assert.Equal(t, "db_migration_start", entry["event"])
	assert.NotEmpty(t, entry["ts"])
	assert.Contains(t, entry["ts"], "Z")
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", time.UTC)

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestNew_LocalTimestamp(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	var buf bytes.Buffer
	log := New(&buf, "debug", loc)

	log.Debug().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "ts_local")
	ts, ok := entry["ts"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ts, "+07:00"), ts)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}

func TestTimestampHook(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 3, 0, 0, 123, time.UTC)
	var buf bytes.Buffer
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log := zerolog.New(&buf).Hook(timestampHook{loc: time.FixedZone("WIB", 7*3600), now: func() time.Time { return fixed }})

	log.Info().Msg("")

	assert.Contains(t, buf.String(), `"ts":"2024-03-15T10:00:00.000000123+07:00"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(" error "))
}
