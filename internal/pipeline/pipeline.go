// Package pipeline admits requests and drives them through
// fetch → transcode → deliver, converting every failure into a short
// user-facing reply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clipbot/clipbot/internal/bus"
	"github.com/clipbot/clipbot/internal/channel"
	"github.com/clipbot/clipbot/internal/config"
	"github.com/clipbot/clipbot/internal/deliver"
	"github.com/clipbot/clipbot/internal/fetch"
	"github.com/clipbot/clipbot/internal/link"
	"github.com/clipbot/clipbot/internal/ratelimit"
	"github.com/clipbot/clipbot/internal/session"
	"github.com/clipbot/clipbot/internal/transcode"
)

// Failure taxonomy. Fetch contributes ErrUnavailable and ErrToolMissing;
// everything here is converted to a user-facing message at the reply
// boundary and never escapes the pipeline.
var (
	ErrAccessDenied = errors.New("access denied")
	ErrRateLimited  = errors.New("rate limited")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooLarge     = errors.New("file too large with no fallback link")
)

const helpText = `Send a TikTok link to this bot.

Commands:
• Send a link → choose Video/Audio
• /audio – extract audio (MP3) from your last link
• /help – this message

Note: only download content you have the rights to.`

// Options holds the collaborators and knobs for a Pipeline.
type Options struct {
	Bus        *bus.MessageBus
	Config     *config.Config
	Limiter    *ratelimit.Limiter
	Links      session.Store
	Fetcher    *fetch.Fetcher
	Transcoder *transcode.Transcoder
}

// Pipeline processes inbound requests from the bus.
type Pipeline struct {
	bus        *bus.MessageBus
	cfg        *config.Config
	limiter    *ratelimit.Limiter
	links      session.Store
	fetcher    *fetch.Fetcher
	transcoder *transcode.Transcoder
}

// New creates a pipeline, filling in default collaborators where unset.
func New(opts Options) *Pipeline {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(opts.Config.Window(), opts.Config.Limits.RequestsPerWindow)
	}
	if opts.Links == nil {
		opts.Links = session.NewLinks()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New()
	}
	if opts.Transcoder == nil {
		opts.Transcoder = transcode.New()
	}
	return &Pipeline{
		bus:        opts.Bus,
		cfg:        opts.Config,
		limiter:    opts.Limiter,
		links:      opts.Links,
		fetcher:    opts.Fetcher,
		transcoder: opts.Transcoder,
	}
}

// Run consumes inbound messages until ctx is cancelled. Each request is
// handled in its own goroutine; per-identity concurrency is bounded by the
// rate limiter's window count rather than an explicit lock.
func (p *Pipeline) Run(ctx context.Context) {
	slog.Info("Pipeline started",
		"requests_per_window", p.cfg.Limits.RequestsPerWindow,
		"window_seconds", p.cfg.Limits.WindowSeconds,
		"size_budget_mb", p.cfg.Media.SizeBudgetMB)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Pipeline stopping")
			return
		case msg := <-p.bus.Inbound:
			go p.handle(ctx, msg)
		}
	}
}

// handle guards and routes one inbound message. The allow-list check runs
// before the rate limiter so denied identities never mutate any state.
func (p *Pipeline) handle(ctx context.Context, msg *bus.InboundMessage) {
	if !channel.IsAllowed(msg.Identity, p.cfg.Bot.AllowFrom) {
		p.replyErr(msg, ErrAccessDenied)
		return
	}
	if !p.limiter.Admit(msg.Identity) {
		p.replyErr(msg, ErrRateLimited)
		return
	}

	if msg.Action != nil {
		p.runDownload(ctx, msg, msg.Action.URL, msg.Action.Mode)
		return
	}
	p.handleText(ctx, msg)
}

func (p *Pipeline) handleText(ctx context.Context, msg *bus.InboundMessage) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start" || text == "/help":
		p.reply(msg, helpText)
		return

	case text == "/audio":
		url, ok := p.links.Last(msg.Identity)
		if !ok {
			p.replyErr(msg, fmt.Errorf("%w: no link on record, send a TikTok link first", ErrInvalidInput))
			return
		}
		p.runDownload(ctx, msg, url, bus.ModeAudio)
		return
	}

	url, ok := link.Extract(text)
	if !ok {
		p.replyErr(msg, fmt.Errorf("%w: no TikTok link found", ErrInvalidInput))
		return
	}

	p.links.Record(msg.Identity, url)
	p.bus.PublishOutbound(&bus.OutboundMessage{
		Channel:  msg.Channel,
		ChatID:   msg.ChatID,
		OfferURL: url,
	})
}

// runDownload owns one fetch → transcode → deliver run. It allocates a
// private scratch directory and removes it on every exit path. No step is
// retried: any failure is terminal for this request.
func (p *Pipeline) runDownload(ctx context.Context, msg *bus.InboundMessage, url string, mode bus.Mode) {
	runID := uuid.NewString()[:8]
	log := slog.With("run_id", runID, "identity", msg.Identity, "mode", string(mode))
	log.Info("Download started", "url", url)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout())
	defer cancel()

	dir, err := os.MkdirTemp(p.cfg.WorkDirPath(), "clipbot-"+runID+"-")
	if err != nil {
		log.Error("scratch dir", "err", err)
		p.replyErr(msg, fmt.Errorf("create scratch dir: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	info, err := p.fetcher.Probe(ctx, url)
	if err != nil {
		log.Warn("Probe failed", "err", err)
		p.replyErr(msg, err)
		return
	}

	title := fetch.SanitizeTitle(info.Title)
	base := filepath.Join(dir, title)

	if mode == bus.ModeAudio {
		path, err := p.fetcher.DownloadAudio(ctx, url, base)
		if err != nil {
			log.Warn("Audio download failed", "err", err)
			p.replyErr(msg, err)
			return
		}
		log.Info("Audio ready", "size_mb", fmt.Sprintf("%.1f", transcode.SizeMB(path)))
		p.bus.PublishOutboundWait(ctx, &bus.OutboundMessage{
			Channel:  msg.Channel,
			ChatID:   msg.ChatID,
			FilePath: path,
			Caption:  caption(title),
		})
		return
	}

	path, err := p.fetcher.Download(ctx, url, base)
	if err != nil {
		log.Warn("Download failed", "err", err)
		p.replyErr(msg, err)
		return
	}

	budget := float64(p.cfg.Media.SizeBudgetMB)
	final := p.transcoder.FitToBudget(ctx, path, budget, p.cfg.Media.CRF, p.cfg.Media.MaxHeight)
	sizeMB := transcode.SizeMB(final)

	decision := deliver.Resolve(final, sizeMB, budget, info)
	switch decision.Kind {
	case deliver.SendFile:
		log.Info("Sending file", "size_mb", fmt.Sprintf("%.1f", sizeMB))
		p.bus.PublishOutboundWait(ctx, &bus.OutboundMessage{
			Channel:  msg.Channel,
			ChatID:   msg.ChatID,
			FilePath: decision.Path,
			Caption:  caption(title),
		})

	case deliver.SendLink:
		log.Info("Falling back to direct link", "size_mb", fmt.Sprintf("%.1f", sizeMB))
		p.reply(msg, fmt.Sprintf("The file (%.1f MB) is too large to upload. Direct download:\n%s", sizeMB, decision.URL))

	case deliver.TooLarge:
		log.Warn("Too large, no fallback link", "size_mb", fmt.Sprintf("%.1f", sizeMB))
		p.replyErr(msg, fmt.Errorf("%w (%.1f MB)", ErrTooLarge, sizeMB))
	}
}

func (p *Pipeline) reply(msg *bus.InboundMessage, text string) {
	p.bus.PublishOutbound(&bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Text:    text,
	})
}

func (p *Pipeline) replyErr(msg *bus.InboundMessage, err error) {
	p.reply(msg, UserMessage(err))
}

// UserMessage converts any pipeline error into the short text shown to the
// requester. Unknown failures are truncated rather than dumped wholesale.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return "This bot is in allow-list mode. Access denied."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Try again in a minute."
	case errors.Is(err, ErrInvalidInput):
		return "Send a valid TikTok link. /help for examples."
	case errors.Is(err, fetch.ErrUnavailable):
		return "Video unavailable (private/geo/age restricted)."
	case errors.Is(err, fetch.ErrToolMissing):
		return "Server error: the download tool is not available."
	case errors.Is(err, ErrTooLarge):
		return "The file is too large to upload and no direct link is available."
	default:
		return "Failed: " + truncate(err.Error(), 400)
	}
}

func caption(title string) string {
	return truncate(title, 990)
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so
// multibyte text is never split into invalid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
