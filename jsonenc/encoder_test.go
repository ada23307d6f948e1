package jsonenc_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/jsonenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 1, 15, 12, 0, 0, 123_000_000, time.FixedZone("CET", 2*60*60))

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	return doc
}

type secret string

func (secret) LogValue() slog.Value {
	return slog.StringValue("***")
}

func TestEncode_DefaultFieldNames(t *testing.T) {
	t.Parallel()

	b, err := jsonenc.New().Encode(appender.Event{
		Time:    fixedTime,
		Level:   slog.LevelWarn,
		Message: "disk almost full",
	})
	require.NoError(t, err)

	doc := decode(t, b)
	assert.Equal(t, "disk almost full", doc["message"])
	assert.Equal(t, "WARN", doc["level"])
	assert.InDelta(t, 4, doc["levelValue"], 0)
	assert.InDelta(t, float64(fixedTime.UnixMilli()), doc["timestamp"], 0)
	assert.NotContains(t, doc, "logger")
	assert.NotContains(t, doc, "source")
	assert.NotContains(t, doc, "attributes")
}

func TestEncode_CapitalizedWithTimestampLayout(t *testing.T) {
	t.Parallel()

	enc := jsonenc.New(
		jsonenc.WithFieldNames(jsonenc.CapitalizingFieldNames()),
		jsonenc.WithTimestampLayout(jsonenc.TimestampLayout),
	)

	b, err := enc.Encode(appender.Event{
		Time:       fixedTime,
		Level:      slog.LevelInfo,
		Message:    "boot complete",
		LoggerName: "main",
		Source:     &slog.Source{Function: "main.main", File: "main.go", Line: 12},
	})
	require.NoError(t, err)

	doc := decode(t, b)
	assert.Equal(t, "boot complete", doc["Message"])
	assert.Equal(t, "INFO", doc["Level"])
	assert.Equal(t, "main", doc["Logger"])
	assert.Equal(t, "2024-01-15T12:00:00.123+0200", doc["Timestamp"])
	assert.Equal(t, map[string]any{"function": "main.main", "file": "main.go", "line": float64(12)}, doc["Source"])
}

func TestEncode_WithLocation(t *testing.T) {
	t.Parallel()

	enc := jsonenc.New(jsonenc.WithTimestampLayout(jsonenc.TimestampLayout), jsonenc.WithLocation(time.UTC))

	b, err := enc.Encode(appender.Event{Time: fixedTime, Message: "m"})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15T10:00:00.123+0000", decode(t, b)["timestamp"])
}

func TestEncode_EmptyFieldNameIsOmitted(t *testing.T) {
	t.Parallel()

	names := jsonenc.DefaultFieldNames()
	names.LevelValue = ""
	names.Timestamp = ""

	b, err := jsonenc.New(jsonenc.WithFieldNames(names)).Encode(appender.Event{Time: fixedTime, Message: "m"})
	require.NoError(t, err)

	doc := decode(t, b)
	assert.Len(t, doc, 2)
	assert.Contains(t, doc, "level")
	assert.Contains(t, doc, "message")
}

func TestEncode_ZeroTimeIsOmitted(t *testing.T) {
	t.Parallel()

	b, err := jsonenc.New().Encode(appender.Event{Message: "m"})
	require.NoError(t, err)

	assert.NotContains(t, decode(t, b), "timestamp")
}

func TestEncode_Attributes(t *testing.T) {
	t.Parallel()

	b, err := jsonenc.New().Encode(appender.Event{
		Message: "served",
		Attrs: []slog.Attr{
			slog.String("service", "api"),
			slog.Group("req", slog.String("id", "r-1")),
			slog.Group("req", slog.Int("status", 200)),
			slog.Any("err", errors.New("timeout")),
			slog.Duration("elapsed", 1500*time.Millisecond),
			slog.Any("password", secret("hunter2")),
			slog.Float64("ratio", math.NaN()),
			slog.Bool("cached", true),
			slog.Group("", slog.String("inlined", "yes")),
			slog.Group("empty"),
			slog.Any("fn", func() {}),
		},
	})
	require.NoError(t, err)

	attrs, ok := decode(t, b)["attributes"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "api", attrs["service"])
	assert.Equal(t, map[string]any{"id": "r-1", "status": float64(200)}, attrs["req"])
	assert.Equal(t, "timeout", attrs["err"])
	assert.Equal(t, "1.5s", attrs["elapsed"])
	assert.Equal(t, "***", attrs["password"])
	assert.Equal(t, "NaN", attrs["ratio"])
	assert.Equal(t, true, attrs["cached"])
	assert.Equal(t, "yes", attrs["inlined"])
	assert.NotContains(t, attrs, "empty")
	assert.IsType(t, "", attrs["fn"])
}

func TestCapitalizingFieldNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, jsonenc.FieldNames{
		Timestamp:  "Timestamp",
		Level:      "Level",
		LevelValue: "LevelValue",
		Logger:     "Logger",
		Message:    "Message",
		Source:     "Source",
		Attributes: "Attributes",
	}, jsonenc.CapitalizingFieldNames())
}
