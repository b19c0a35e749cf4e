package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clipbot/clipbot/internal/config"
)

// --- onboard selection model ---

type onboardChoice int

const (
	choiceUpgrade onboardChoice = iota
	choiceOverwrite
	choiceSkip
)

type onboardModel struct {
	choices []string
	cursor  int
	chosen  bool
	choice  onboardChoice
}

func (m onboardModel) Init() tea.Cmd { return nil }

func (m onboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.choice = choiceSkip
			m.chosen = true
			return m, tea.Quit
		case tea.KeyUp, tea.KeyShiftTab:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown, tea.KeyTab:
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case tea.KeyEnter:
			m.choice = onboardChoice(m.cursor)
			m.chosen = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m onboardModel) View() string {
	if m.chosen {
		return ""
	}

	s := "\n"
	s += fmt.Sprintf("  Config already exists at %s\n\n", DimStyle.Render(config.ConfigPath()))

	for i, choice := range m.choices {
		cursor := "  "
		if i == m.cursor {
			cursor = TitleStyle.Render("❯ ")
		}
		s += "  " + cursor + choice + "\n"
	}

	s += "\n" + DimStyle.Render("  ↑/↓ navigate · enter select · ctrl+c cancel") + "\n"
	return s
}

// --- setup form model ---

type setupField int

const (
	fieldToken setupField = iota
	fieldAllowFrom
	fieldCount
)

type setupModel struct {
	inputs  []textinput.Model
	focus   setupField
	done    bool
	aborted bool
}

func newSetupModel(cfg *config.Config) setupModel {
	token := textinput.New()
	token.Placeholder = "Discord bot token"
	token.EchoMode = textinput.EchoPassword
	token.SetValue(cfg.Bot.Token)
	token.Prompt = "❯ "
	token.PromptStyle = lipgloss.NewStyle().Foreground(Accent)
	token.Focus()

	allow := textinput.New()
	allow.Placeholder = "Allowed user IDs, comma-separated (empty = open to all)"
	allow.SetValue(strings.Join(cfg.Bot.AllowFrom, ","))
	allow.Prompt = "❯ "
	allow.PromptStyle = lipgloss.NewStyle().Foreground(Accent)

	return setupModel{inputs: []textinput.Model{token, allow}}
}

func (m setupModel) Init() tea.Cmd { return textinput.Blink }

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter, tea.KeyTab, tea.KeyDown:
			if m.focus == fieldCount-1 && msg.Type == tea.KeyEnter {
				m.done = true
				return m, tea.Quit
			}
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % fieldCount
			m.inputs[m.focus].Focus()
			return m, nil
		case tea.KeyUp, tea.KeyShiftTab:
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + fieldCount - 1) % fieldCount
			m.inputs[m.focus].Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	labels := []string{"Bot token", "Allow-list"}
	s := "\n"
	for i, in := range m.inputs {
		s += "  " + BoldStyle.Render(labels[i]) + "\n"
		s += "  " + in.View() + "\n\n"
	}
	s += DimStyle.Render("  tab/enter next · ctrl+c cancel") + "\n"
	return s
}

// RunOnboard runs the onboard wizard.
func RunOnboard() {
	cfgPath := config.ConfigPath()
	var cfg *config.Config

	fmt.Println()
	fmt.Println(TitleStyle.Render(fmt.Sprintf("  %s clipbot Onboard", Logo)))

	if _, err := os.Stat(cfgPath); err == nil {
		// Config exists — ask what to do
		m := onboardModel{
			choices: []string{
				"Upgrade — add new fields, keep existing values",
				"Overwrite — replace with fresh defaults",
				"Skip — do not modify config",
			},
		}
		p := tea.NewProgram(m)
		final, err := p.Run()
		if err != nil {
			fmt.Println("  " + ErrStyle.Render("Error: "+err.Error()))
			os.Exit(1)
		}
		fm := final.(onboardModel)

		fmt.Println()
		switch fm.choice {
		case choiceUpgrade:
			upgraded, err := config.Upgrade()
			if err != nil {
				fmt.Println("  " + ErrStyle.Render("Error: "+err.Error()))
				os.Exit(1)
			}
			cfg = upgraded
			fmt.Println("  " + OkStyle.Render("✓") + " Upgraded config")
		case choiceOverwrite:
			cfg = config.DefaultConfig()
			fmt.Println("  " + OkStyle.Render("✓") + " Reset to defaults")
		default:
			fmt.Println("  " + DimStyle.Render("Config unchanged"))
			cfg, _ = config.Load()
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Collect token and allow-list.
	form := newSetupModel(cfg)
	p := tea.NewProgram(form)
	final, err := p.Run()
	if err != nil {
		fmt.Println("  " + ErrStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
	fm := final.(setupModel)
	if !fm.aborted {
		cfg.Bot.Token = strings.TrimSpace(fm.inputs[fieldToken].Value())
		cfg.Bot.AllowFrom = splitList(fm.inputs[fieldAllowFrom].Value())
	}

	if err := config.Save(cfg); err != nil {
		fmt.Println("  " + ErrStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
	fmt.Println("  " + OkStyle.Render("✓") + " Saved config at " + DimStyle.Render(cfgPath))

	fmt.Println()
	fmt.Println(OkStyle.Render("  clipbot is ready!"))
	fmt.Println()
	fmt.Println(DimStyle.Render("  Next steps:"))
	fmt.Println(DimStyle.Render("  1. Make sure yt-dlp and ffmpeg are installed"))
	fmt.Println(DimStyle.Render("  2. Start the bot: clipbot run"))
	fmt.Println()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
