package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTruncateHandler tests string value capping.
func TestTruncateHandler(t *testing.T) {
	t.Parallel()

	t.Run("short values pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("fetch", "selector", "/docs/readme.txt")

		if !strings.Contains(buf.String(), "/docs/readme.txt") {
			t.Errorf("short value was altered: %s", buf.String())
		}
	})

	t.Run("long values are capped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(10),
		))

		logger.Info("fetch", "selector", strings.Repeat("a", 100))

		out := buf.String()
		if !strings.Contains(out, "aaaaaaaaaa...(truncated)") {
			t.Errorf("expected truncated value, got: %s", out)
		}
		if strings.Contains(out, strings.Repeat("a", 11)) {
			t.Errorf("value not capped: %s", out)
		}
	})

	t.Run("non-string values untouched", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(2),
		))

		logger.Info("stats", "count", 123456)

		if !strings.Contains(buf.String(), "123456") {
			t.Errorf("numeric value was altered: %s", buf.String())
		}
	})

	t.Run("group attributes capped recursively", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(5),
		))

		logger.Info("fetch", slog.Group("req", slog.String("selector", "abcdefghij")))

		if !strings.Contains(buf.String(), "abcde...(truncated)") {
			t.Errorf("group value not capped: %s", buf.String())
		}
	})

	t.Run("WithAttrs caps bound attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := NewTruncateHandler(slog.NewTextHandler(&buf, nil), WithMaxValueLen(4))
		logger := slog.New(base).With("server", "abcdefgh")

		logger.Info("crawl")

		if !strings.Contains(buf.String(), "abcd...(truncated)") {
			t.Errorf("bound attribute not capped: %s", buf.String())
		}
	})
}

// TestNewLogger tests the level switch.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("quiet by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		logger.Info("should be suppressed")
		logger.Warn("should appear")

		out := buf.String()
		if strings.Contains(out, "suppressed") {
			t.Error("info should be suppressed without verbose")
		}
		if !strings.Contains(out, "should appear") {
			t.Error("warn should always appear")
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("debug detail")

		if !strings.Contains(buf.String(), "debug detail") {
			t.Error("debug should appear with verbose")
		}
	})
}
