// Package fetch resolves and downloads media through yt-dlp.
//
// Two invocation shapes exist: a metadata-only probe (no payload transfer)
// and a full download in video or audio mode. yt-dlp is treated as a black
// box; its stderr is captured for failure classification only.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

const (
	// socketTimeout bounds each network operation inside yt-dlp so a stuck
	// transfer cannot stall the pipeline indefinitely.
	socketTimeout = "30"

	// maxTitleLen keeps derived file base names inside filesystem limits.
	maxTitleLen = 80

	// maxErrLen truncates unclassified tool errors before they reach users.
	maxErrLen = 400

	fallbackTitle = "tiktok_video"
)

var (
	// ErrToolMissing means yt-dlp is not installed or not on PATH.
	ErrToolMissing = errors.New("yt-dlp not available")

	// ErrUnavailable means the media is private, removed, or geo/age
	// restricted and cannot be fetched.
	ErrUnavailable = errors.New("media unavailable")
)

// Format is one downloadable representation of the media.
type Format struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
}

// Info is the metadata a probe returns.
type Info struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Formats []Format `json:"formats"`
}

// Runner executes a yt-dlp invocation and returns its stdout. Failed runs
// must return an error whose text includes the tool's stderr.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	bin string
}

func (r execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(r.bin); err != nil {
		return nil, fmt.Errorf("%s: %w", r.bin, exec.ErrNotFound)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp: %s", msg)
	}
	return stdout.Bytes(), nil
}

// Fetcher drives yt-dlp.
type Fetcher struct {
	runner Runner
}

// New creates a Fetcher invoking the yt-dlp binary.
func New() *Fetcher {
	return &Fetcher{runner: execRunner{bin: "yt-dlp"}}
}

// NewWithRunner creates a Fetcher with a custom runner (used by tests).
func NewWithRunner(r Runner) *Fetcher {
	return &Fetcher{runner: r}
}

// Probe resolves metadata for url without downloading the payload.
func (f *Fetcher) Probe(ctx context.Context, url string) (*Info, error) {
	out, err := f.runner.Run(ctx,
		"-J",
		"--no-playlist",
		"--no-warnings",
		"--socket-timeout", socketTimeout,
		url,
	)
	if err != nil {
		return nil, Classify(err)
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	if info.Title == "" {
		info.Title = fallbackTitle
	}
	return &info, nil
}

// Download fetches the best combined video+audio stream (falling back to best
// overall), merged into an mp4 at base+".mp4", and returns that path.
func (f *Fetcher) Download(ctx context.Context, url, base string) (string, error) {
	out := base + ".mp4"
	_, err := f.runner.Run(ctx,
		"-f", "bv*+ba/best",
		"--no-playlist",
		"-q", "--no-warnings",
		"--socket-timeout", socketTimeout,
		"--merge-output-format", "mp4",
		"-o", out,
		url,
	)
	if err != nil {
		return "", Classify(err)
	}
	return out, nil
}

// DownloadAudio fetches the best audio-only stream and converts it to a
// 192 kbps mp3 at base+".mp3" via yt-dlp's post-processing step.
func (f *Fetcher) DownloadAudio(ctx context.Context, url, base string) (string, error) {
	_, err := f.runner.Run(ctx,
		"-f", "bestaudio/best",
		"--no-playlist",
		"-q", "--no-warnings",
		"--socket-timeout", socketTimeout,
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", base+".%(ext)s",
		url,
	)
	if err != nil {
		return "", Classify(err)
	}
	return base + ".mp3", nil
}

// Classify maps a raw tool error onto the fetch failure taxonomy:
// ErrToolMissing, ErrUnavailable, or the original error with its message
// truncated for display.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrToolMissing, err)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "private") || strings.Contains(msg, "403") || strings.Contains(msg, "410") {
		return fmt.Errorf("%w: %s", ErrUnavailable, truncate(msg, maxErrLen))
	}
	if len(msg) > maxErrLen {
		return errors.New(truncate(msg, maxErrLen))
	}
	return err
}

// SanitizeTitle turns a media title into a safe file base name: path
// separators stripped, whitespace trimmed, truncated to 80 characters.
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.ReplaceAll(title, "/", "-")
	title = strings.ReplaceAll(title, `\`, "-")
	if title == "" {
		title = fallbackTitle
	}
	return truncate(title, maxTitleLen)
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so a
// multibyte title is never split into invalid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
