package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug, ReplaceAttr: replaceAttr})
	return slog.New(contextHandler{next: h}), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestContextFieldsAreAppended(t *testing.T) {
	log, buf := capture(t)
	ctx := WithRID(context.Background(), "42:-100:7")
	ctx = WithUpdateMeta(ctx, 42, 7, -100)
	ctx = WithHandler(ctx, "report")

	LogEvent(ctx, log.With(slog.String("component", "tg")), slog.LevelInfo, "handler.handled",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("backoff_ms", 2*time.Second),
	)

	line := decode(t, buf)
	assert.Equal(t, "handler.handled", line["event"])
	assert.Equal(t, "tg", line["component"])
	assert.Equal(t, "42:-100:7", line["rid"])
	assert.EqualValues(t, 42, line["update_id"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.EqualValues(t, -100, line["chat_id"])
	assert.Equal(t, "report", line["handler"])
	assert.EqualValues(t, 2, line["duration_ms"])
	assert.EqualValues(t, 2000, line["backoff_ms"])
	assert.Contains(t, line, "ts")
}

func TestNoContextFieldsWithoutMeta(t *testing.T) {
	log, buf := capture(t)
	LogEvent(context.Background(), log, slog.LevelWarn, "job.fail")
	line := decode(t, buf)
	assert.NotContains(t, line, "rid")
	assert.NotContains(t, line, "update_id")
	assert.Equal(t, "WARN", line["level"])
}

func TestFromContext(t *testing.T) {
	assert.Same(t, L, FromContext(context.Background()))
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, custom, FromContext(WithLogger(context.Background(), custom)))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", SanitizeLimit("a\x00b\tc\u200e", 10))
	assert.Equal(t, "При", SanitizeLimit("Привет", 3))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestSummarizeStrings(t *testing.T) {
	s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a, b", s)
	assert.True(t, cut)
	s, cut = SummarizeStrings([]string{"a"}, 2)
	assert.Equal(t, "a", s)
	assert.False(t, cut)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestBuildRID(t *testing.T) {
	assert.Equal(t, "1:-2:3", BuildRID(1, -2, 3))
}
