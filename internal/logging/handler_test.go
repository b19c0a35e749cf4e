package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func record(msg string) slog.Record {
	ts := time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC)
	return slog.NewRecord(ts, slog.LevelInfo, msg, 0)
}

func TestPlainHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil)

	r := record("Download started")
	r.AddAttrs(slog.String("url", "https://example"))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "2026-08-30 12:34:56 INF Download started") {
		t.Errorf("plain line = %q, want full timestamp prefix", got)
	}
	if strings.Contains(got, "\033[") {
		t.Errorf("plain line contains ANSI escapes: %q", got)
	}
	if !strings.Contains(got, "url=https://example") {
		t.Errorf("plain line missing attr: %q", got)
	}
}

func TestColorHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, &Options{Color: true})

	if err := h.Handle(context.Background(), record("hello")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "\033[") {
		t.Errorf("color line has no ANSI escapes: %q", got)
	}
	if !strings.Contains(got, "12:34:56") || strings.Contains(got, "2026-08-30") {
		t.Errorf("color line = %q, want short timestamp only", got)
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &Options{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled at warn level")
	}
}

func TestTeeWritesAllHandlers(t *testing.T) {
	var term, file bytes.Buffer
	tee := NewTee(
		NewHandler(&term, &Options{Color: true}),
		NewHandler(&file, nil),
	)

	if err := tee.Handle(context.Background(), record("fanout")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(term.String(), "fanout") {
		t.Errorf("terminal handler missing record: %q", term.String())
	}
	if !strings.Contains(file.String(), "fanout") {
		t.Errorf("file handler missing record: %q", file.String())
	}
	if strings.Contains(file.String(), "\033[") {
		t.Errorf("file output contains ANSI escapes: %q", file.String())
	}
}

func TestTeeRespectsLevels(t *testing.T) {
	var quiet, loud bytes.Buffer
	tee := NewTee(
		NewHandler(&quiet, &Options{Level: slog.LevelError}),
		NewHandler(&loud, nil),
	)

	if !tee.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("tee disabled while one handler accepts info")
	}
	if err := tee.Handle(context.Background(), record("info only")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if quiet.Len() != 0 {
		t.Errorf("error-level handler received info record: %q", quiet.String())
	}
	if loud.Len() == 0 {
		t.Error("default handler dropped info record")
	}
}

func TestTeeWithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	tee := NewTee(NewHandler(&a, nil), NewHandler(&b, nil))

	withID := tee.WithAttrs([]slog.Attr{slog.String("run_id", "ab12cd34")})
	if err := withID.Handle(context.Background(), record("tagged")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), "run_id=ab12cd34") {
			t.Errorf("%s handler missing inherited attr: %q", name, buf.String())
		}
	}
}
