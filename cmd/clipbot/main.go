package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/clipbot/clipbot/internal/bus"
	"github.com/clipbot/clipbot/internal/channel"
	"github.com/clipbot/clipbot/internal/cli"
	"github.com/clipbot/clipbot/internal/config"
	"github.com/clipbot/clipbot/internal/janitor"
	"github.com/clipbot/clipbot/internal/logging"
	"github.com/clipbot/clipbot/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		cmdRun()
	case "status":
		cmdStatus()
	case "onboard":
		cli.RunOnboard()
	case "version", "--version", "-v":
		fmt.Println(cli.TitleStyle.Render(
			fmt.Sprintf("  %s clipbot v%s", cli.Logo, cli.Version),
		))
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	dim := cli.DimStyle.Render
	fmt.Println()
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("  %s clipbot", cli.Logo)) + dim(" — TikTok download bot"))
	fmt.Println()
	fmt.Println("  " + cli.BoldStyle.Render("Usage"))
	fmt.Println()
	fmt.Printf("    clipbot %-10s %s\n", "run", dim("Start the bot"))
	fmt.Printf("    clipbot %-10s %s\n", "status", dim("Show configuration"))
	fmt.Printf("    clipbot %-10s %s\n", "onboard", dim("Initialize setup"))
	fmt.Printf("    clipbot %-10s %s\n", "version", dim("Show version"))
	fmt.Println()
}

// --- run command ---

func cmdRun() {
	cfg := mustLoadConfig()

	// Missing credentials abort startup entirely; nothing else is fatal
	// once the bot is up.
	if cfg.Bot.Token == "" {
		fmt.Fprintln(os.Stderr, cli.ErrStyle.Render("Error: bot.token is not set."))
		fmt.Fprintln(os.Stderr, cli.DimStyle.Render("Set it in "+config.ConfigPath()+" or run: clipbot onboard"))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(setupLogging()))

	msgBus := bus.NewMessageBus()
	pipe := pipeline.New(pipeline.Options{
		Bus:    msgBus,
		Config: cfg,
	})

	discord := channel.NewDiscord(cfg.Bot, msgBus)
	msgBus.Subscribe(discord.Name(), func(ctx context.Context, msg *bus.OutboundMessage) error {
		return discord.Send(ctx, msg)
	})

	sweeper := janitor.NewService(cfg.WorkDirPath(), janitor.DefaultInterval, janitor.DefaultMaxAge)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go msgBus.DispatchOutbound(ctx)
	go pipe.Run(ctx)
	go sweeper.Run(ctx)

	fmt.Println()
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("  %s clipbot", cli.Logo)))
	fmt.Println(cli.DimStyle.Render("  Press Ctrl+C to stop"))
	fmt.Println()

	if err := discord.Start(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Discord channel error", "err", err)
	}
	discord.Stop()
}

// --- status command ---

func cmdStatus() {
	cfg, _ := config.Load()
	cli.RunStatus(cfg)
}

// --- helpers ---

// setupLogging tees records to stderr (colored, short timestamps) and a
// plain-format log file in the data dir. Stderr-only if the file can't open.
func setupLogging() *logging.Tee {
	term := logging.NewHandler(os.Stderr, &logging.Options{Color: true})

	logPath := filepath.Join(config.DataDir(), "clipbot.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return logging.NewTee(term)
	}
	return logging.NewTee(term, logging.NewHandler(f, nil))
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}
	return cfg
}
