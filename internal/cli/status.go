package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/clipbot/clipbot/internal/config"
)

// RunStatus displays the current configuration status with styled output.
func RunStatus(cfg *config.Config) {
	cfgPath := config.ConfigPath()

	fmt.Println()
	fmt.Println(TitleStyle.Render(fmt.Sprintf("  %s clipbot Status", Logo)))
	fmt.Println()

	fmt.Printf("  %-12s %s  %s\n", "Config", StatusBadge(fileExists(cfgPath)), DimStyle.Render(cfgPath))
	fmt.Printf("  %-12s %s  %s\n", "Token", StatusBadge(cfg.Bot.Token != ""), DimStyle.Render("bot.token"))

	if n := len(cfg.Bot.AllowFrom); n > 0 {
		fmt.Printf("  %-12s %d identities\n", "Allow-list", n)
	} else {
		fmt.Printf("  %-12s %s\n", "Allow-list", DimStyle.Render("open to all"))
	}
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Limits"))
	fmt.Printf("    %d requests per %ds window\n", cfg.Limits.RequestsPerWindow, cfg.Limits.WindowSeconds)
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Media"))
	fmt.Printf("    %-14s %d MB\n", "size budget", cfg.Media.SizeBudgetMB)
	fmt.Printf("    %-14s crf %s, max height %d\n", "encode", cfg.Media.CRF, cfg.Media.MaxHeight)
	fmt.Printf("    %-14s %s\n", "work dir", DimStyle.Render(cfg.WorkDirPath()))
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Tools"))
	for _, tool := range []string{"yt-dlp", "ffmpeg"} {
		fmt.Printf("    %s  %s\n", StatusBadge(toolInstalled(tool)), tool)
	}
	fmt.Println()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func toolInstalled(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
