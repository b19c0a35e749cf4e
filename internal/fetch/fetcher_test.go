package fetch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"unicode/utf8"
)

// fakeRunner records invocations and replays canned results.
type fakeRunner struct {
	calls  [][]string
	stdout []byte
	err    error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return f.stdout, f.err
}

func TestProbeParsesMetadata(t *testing.T) {
	r := &fakeRunner{stdout: []byte(`{
		"title": "dance video",
		"url": "https://cdn.example/direct.mp4",
		"formats": [
			{"url": "https://cdn.example/480.mp4", "height": 480},
			{"url": "https://cdn.example/720.mp4", "height": 720}
		]
	}`)}
	f := NewWithRunner(r)

	info, err := f.Probe(context.Background(), "https://vm.tiktok.com/x/")
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "dance video" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.URL != "https://cdn.example/direct.mp4" {
		t.Errorf("URL = %q", info.URL)
	}
	if len(info.Formats) != 2 || info.Formats[1].Height != 720 {
		t.Errorf("Formats = %+v", info.Formats)
	}

	if len(r.calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(r.calls))
	}
	args := strings.Join(r.calls[0], " ")
	for _, want := range []string{"-J", "--no-playlist", "--socket-timeout 30"} {
		if !strings.Contains(args, want) {
			t.Errorf("probe args missing %q: %s", want, args)
		}
	}
}

func TestProbeEmptyTitleFallsBack(t *testing.T) {
	r := &fakeRunner{stdout: []byte(`{"url": "https://cdn.example/d.mp4"}`)}
	info, err := NewWithRunner(r).Probe(context.Background(), "u")
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "tiktok_video" {
		t.Errorf("Title = %q, want fallback", info.Title)
	}
}

func TestDownloadArgsAndPath(t *testing.T) {
	r := &fakeRunner{}
	path, err := NewWithRunner(r).Download(context.Background(), "https://vm.tiktok.com/x/", "/tmp/work/clip")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/work/clip.mp4" {
		t.Errorf("path = %q", path)
	}
	args := strings.Join(r.calls[0], " ")
	for _, want := range []string{"-f bv*+ba/best", "--merge-output-format mp4", "-o /tmp/work/clip.mp4"} {
		if !strings.Contains(args, want) {
			t.Errorf("download args missing %q: %s", want, args)
		}
	}
}

func TestDownloadAudioArgsAndPath(t *testing.T) {
	r := &fakeRunner{}
	path, err := NewWithRunner(r).DownloadAudio(context.Background(), "https://vm.tiktok.com/x/", "/tmp/work/clip")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/work/clip.mp3" {
		t.Errorf("path = %q", path)
	}
	args := strings.Join(r.calls[0], " ")
	for _, want := range []string{"-f bestaudio/best", "--extract-audio", "--audio-format mp3", "--audio-quality 192K"} {
		if !strings.Contains(args, want) {
			t.Errorf("audio args missing %q: %s", want, args)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"tool missing", fmt.Errorf("yt-dlp: %w", exec.ErrNotFound), ErrToolMissing},
		{"private", errors.New("ERROR: This video is Private"), ErrUnavailable},
		{"http 403", errors.New("HTTP Error 403: Forbidden"), ErrUnavailable},
		{"http 410", errors.New("HTTP Error 410: Gone"), ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Classify(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyTruncatesUnknown(t *testing.T) {
	long := strings.Repeat("x", 1000)
	got := Classify(errors.New(long))
	if len(got.Error()) > 400 {
		t.Errorf("unknown error length = %d, want <= 400", len(got.Error()))
	}
}

func TestDownloadSurfacesClassifiedError(t *testing.T) {
	r := &fakeRunner{err: errors.New("yt-dlp: HTTP Error 403: Forbidden")}
	_, err := NewWithRunner(r).Download(context.Background(), "u", "/tmp/c")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Download error = %v, want ErrUnavailable", err)
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{"  padded  ", "padded"},
		{"with/slash", "with-slash"},
		{`back\slash`, "back-slash"},
		{"", "tiktok_video"},
		{"   ", "tiktok_video"},
		{strings.Repeat("a", 120), strings.Repeat("a", 80)},
		// A multibyte rune straddling the cut must be dropped whole, not
		// split into an invalid byte.
		{strings.Repeat("a", 79) + "éé", strings.Repeat("a", 79)},
		{strings.Repeat("é", 50), strings.Repeat("é", 40)},
		{strings.Repeat("🎵", 30), strings.Repeat("🎵", 20)},
	}
	for _, tt := range tests {
		got := SanitizeTitle(tt.in)
		if got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("SanitizeTitle(%q) = %q, invalid UTF-8", tt.in, got)
		}
	}
}
