package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// spyRunner counts invocations and optionally writes a fake output file.
type spyRunner struct {
	calls   int
	args    []string
	err     error
	outSize int
}

func (s *spyRunner) Run(_ context.Context, args ...string) error {
	s.calls++
	s.args = args
	if s.err != nil {
		return s.err
	}
	if s.outSize > 0 {
		// Last argument is the output path.
		out := args[len(args)-1]
		os.WriteFile(out, make([]byte, s.outSize), 0o644)
	}
	return nil
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFitToBudgetNoopWithinBudget(t *testing.T) {
	in := writeFile(t, t.TempDir(), "clip.mp4", 1024)
	spy := &spyRunner{}
	tr := NewWithRunner(spy)

	got := tr.FitToBudget(context.Background(), in, 1.0, "28", 720)
	if got != in {
		t.Errorf("path = %q, want input unchanged", got)
	}
	if spy.calls != 0 {
		t.Errorf("encoder invoked %d times for in-budget input, want 0", spy.calls)
	}
}

func TestFitToBudgetEncodesOversized(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "clip.mp4", 3*1024*1024)
	spy := &spyRunner{outSize: 1024 * 1024}
	tr := NewWithRunner(spy)

	got := tr.FitToBudget(context.Background(), in, 2.0, "28", 720)
	want := filepath.Join(dir, "clip.crf28.mp4")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	if spy.calls != 1 {
		t.Errorf("encoder invoked %d times, want exactly 1", spy.calls)
	}

	args := strings.Join(spy.args, " ")
	for _, part := range []string{
		"-c:v libx264", "-preset veryfast", "-crf 28", "-b:a 128k",
		"scale='min(iw,iw*720/ih)':min(720,ih):force_original_aspect_ratio=decrease",
	} {
		if !strings.Contains(args, part) {
			t.Errorf("encoder args missing %q: %s", part, args)
		}
	}
}

func TestFitToBudgetKeepsOriginalWhenEncodeInflates(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "clip.mp4", 3*1024*1024)
	spy := &spyRunner{outSize: 4 * 1024 * 1024}
	tr := NewWithRunner(spy)

	got := tr.FitToBudget(context.Background(), in, 2.0, "28", 720)
	if got != in {
		t.Errorf("path = %q, want original when output is not smaller", got)
	}
	if SizeMB(got) > SizeMB(in) {
		t.Error("result larger than input")
	}
}

func TestFitToBudgetKeepsOriginalOnEncoderFailure(t *testing.T) {
	in := writeFile(t, t.TempDir(), "clip.mp4", 3*1024*1024)
	spy := &spyRunner{err: errors.New("ffmpeg: boom")}
	tr := NewWithRunner(spy)

	got := tr.FitToBudget(context.Background(), in, 2.0, "28", 720)
	if got != in {
		t.Errorf("path = %q, want original on encoder failure", got)
	}
}

func TestSizeMBMissingFile(t *testing.T) {
	if got := SizeMB("/nonexistent/file.mp4"); got != 0 {
		t.Errorf("SizeMB(missing) = %f, want 0", got)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, crf, want string
	}{
		{"/tmp/w/clip.mp4", "28", "/tmp/w/clip.crf28.mp4"},
		{"/tmp/w/clip", "30", "/tmp/w/clip.crf30.mp4"},
		{"/tmp/w.d/clip", "28", "/tmp/w.d/clip.crf28.mp4"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.in, tt.crf); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.in, tt.crf, got, tt.want)
		}
	}
}
