// Package transcode shrinks oversized videos with a single ffmpeg pass.
package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Runner executes one encoder invocation.
type Runner interface {
	Run(ctx context.Context, args ...string) error
}

type ffmpegRunner struct{}

func (ffmpegRunner) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("ffmpeg: %s", msg)
	}
	return nil
}

// Transcoder re-encodes videos that exceed a size budget.
type Transcoder struct {
	runner Runner
}

// New creates a Transcoder invoking the ffmpeg binary.
func New() *Transcoder {
	return &Transcoder{runner: ffmpegRunner{}}
}

// NewWithRunner creates a Transcoder with a custom encoder runner (tests).
func NewWithRunner(r Runner) *Transcoder {
	return &Transcoder{runner: r}
}

// FitToBudget returns a path to a version of the input no larger than the
// original. Inputs already within maxMB are returned untouched without
// invoking the encoder. Otherwise exactly one encode is attempted: downscale
// to maxHeight (never upscale), constant-quality crf, fast preset, fixed
// audio bitrate. If the encode fails or does not shrink the file, the
// original path is returned — transcoding failure only forfeits the size
// reduction, it is never fatal.
func (t *Transcoder) FitToBudget(ctx context.Context, path string, maxMB float64, crf string, maxHeight int) string {
	size := SizeMB(path)
	if size <= maxMB {
		return path
	}

	out := outputPath(path, crf)
	// force_original_aspect_ratio=decrease keeps the scale a no-op for
	// inputs already below maxHeight.
	filter := fmt.Sprintf("scale='min(iw,iw*%d/ih)':min(%d,ih):force_original_aspect_ratio=decrease", maxHeight, maxHeight)

	err := t.runner.Run(ctx,
		"-y",
		"-i", path,
		"-vf", filter,
		"-c:v", "libx264", "-preset", "veryfast", "-crf", crf,
		"-c:a", "aac", "-b:a", "128k",
		out,
	)
	if err != nil {
		slog.Warn("transcode failed, keeping original", "path", path, "err", err)
		return path
	}

	if SizeMB(out) >= size {
		slog.Warn("transcode did not shrink file, keeping original", "path", path)
		return path
	}
	return out
}

// SizeMB returns the file size in megabytes, or 0 if the file is missing.
func SizeMB(path string) float64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(fi.Size()) / (1024 * 1024)
}

// outputPath derives the encode target from the input name and the quality
// parameter, e.g. clip.mp4 -> clip.crf28.mp4.
func outputPath(path, crf string) string {
	base := path
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		base = path[:i]
	}
	return base + ".crf" + crf + ".mp4"
}
