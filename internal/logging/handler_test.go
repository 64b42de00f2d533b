package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(h)

	now := time.Now()
	logger.Info("backing up", "path", "/system")

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Errorf("expected level INFO in output, got: %q", output)
	}
	if !strings.Contains(output, "backing up") {
		t.Errorf("expected message in output, got: %q", output)
	}
	if !strings.Contains(output, "path=/system") {
		t.Errorf("expected attribute in output, got: %q", output)
	}
	if !strings.Contains(output, now.Format("15:04")) {
		t.Errorf("expected time in output, got: %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil)).With("rom", "primary")

	logger.Info("message", "target", "data")

	output := buf.String()
	if !strings.Contains(output, "rom=primary") {
		t.Errorf("expected common attribute in output, got: %q", output)
	}
	if !strings.Contains(output, "target=data") {
		t.Errorf("expected local attribute in output, got: %q", output)
	}
}

func TestHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil)).WithGroup("mount")

	logger.Info("mounted", "dir", "/mb_mnt")

	if !strings.Contains(buf.String(), "mount.dir=/mb_mnt") {
		t.Errorf("expected grouped key, got: %q", buf.String())
	}
}

func TestHandler_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil))

	logger.Error("copy failed", "error", "no space left on device")

	if !strings.Contains(buf.String(), `error="no space left on device"`) {
		t.Errorf("expected quoted value, got: %q", buf.String())
	}
}

func TestHandler_Enabled(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := t.Context()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected Info level to be disabled when min level is Warn")
	}
	if !h.Enabled(ctx, slog.LevelWarn) {
		t.Error("expected Warn level to be enabled")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("expected Error level to be enabled")
	}
}

func TestHandler_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	logger.Log(t.Context(), LevelTrace, "removing entry")

	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("expected TRACE level name, got: %q", buf.String())
	}
}

func TestHandler_NoTime(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil)

	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "no time", 0)
	if err := h.Handle(t.Context(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if !strings.HasPrefix(buf.String(), "INFO") {
		t.Errorf("expected output to start with level, got: %q", buf.String())
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var text, json bytes.Buffer
	h := NewMultiHandler(
		NewHandler(&text, nil),
		nil,
		slog.NewJSONHandler(&json, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h)

	logger.Info("progress")
	logger.Warn("missing", "path", "/data/media/0/MultiBoot/primary/thumbnail.webp")

	if strings.Count(text.String(), "\n") != 2 {
		t.Errorf("text handler should get both records, got: %q", text.String())
	}
	if strings.Contains(json.String(), "progress") {
		t.Errorf("json handler should filter Info, got: %q", json.String())
	}
	if !strings.Contains(json.String(), `"msg":"missing"`) {
		t.Errorf("json handler should get Warn record, got: %q", json.String())
	}
}

func TestSupportsColor(t *testing.T) {
	t.Run("not a tty", func(t *testing.T) {
		if SupportsColor(&bytes.Buffer{}) {
			t.Error("buffer should not support color")
		}
	})

	t.Run("NO_COLOR", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		if supportsColor(true) {
			t.Error("NO_COLOR should disable color")
		}
	})

	t.Run("TERM=dumb", func(t *testing.T) {
		t.Setenv("TERM", "dumb")
		if supportsColor(true) {
			t.Error("TERM=dumb should disable color")
		}
	})

	t.Run("tty", func(t *testing.T) {
		t.Setenv("TERM", "xterm-256color")
		if !supportsColor(true) {
			t.Error("tty should support color")
		}
	})
}
