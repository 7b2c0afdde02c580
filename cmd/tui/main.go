package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/settle/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/settle/internal/auth"
	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/config"
	"github.com/MrJamesThe3rd/settle/internal/export"
	"github.com/MrJamesThe3rd/settle/internal/ledger"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

type model struct {
	cfg     *config.Config
	ledger  *ledger.Client
	exports *export.Service
	format  *view.Formatter
	scope   settlement.Scope

	currentView View
	width       int
	height      int

	settleView view.SettlementModel
}

type View int

const (
	ViewMenu   View = 0
	ViewSettle View = 1
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token := cfg.Ledger.Token
	if token == "" && cfg.Auth.Secret != "" {
		token, err = auth.Issue([]byte(cfg.Auth.Secret), cfg.App.Operator, cfg.Auth.TokenTTL)
		if err != nil {
			slog.Error("failed to issue ledger token", "error", err)
			os.Exit(1)
		}
	}

	var scope settlement.Scope
	if cfg.Ledger.OwnerID != "" {
		id, err := uuid.Parse(cfg.Ledger.OwnerID)
		if err != nil {
			slog.Error("invalid LEDGER_OWNER_ID", "value", cfg.Ledger.OwnerID, "error", err)
			os.Exit(1)
		}

		scope = settlement.ByOwner(id)
	}

	return model{
		cfg:         cfg,
		ledger:      ledger.New(cfg.Ledger.URL, token, cfg.Ledger.Timeout),
		exports:     export.NewService(cfg.Receipts.Dir),
		format:      view.NewFormatter(cfg.App.Locale),
		scope:       scope,
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// openDesk starts a fresh settlement view; drafts never survive leaving the screen.
func (m model) openDesk(kind charge.Kind) (model, tea.Cmd) {
	desk := settlement.NewDesk(m.ledger, kind, m.scope)

	m.settleView = view.NewSettlementModel(desk, m.exports, m.format, m.cfg.Ledger.Timeout)
	m.currentView = ViewSettle

	var sizeCmd tea.Cmd
	if m.width > 0 {
		sizeCmd = func() tea.Msg { return tea.WindowSizeMsg{Width: m.width, Height: m.height} }
	}

	return m, tea.Batch(m.settleView.Init(), sizeCmd)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.openDesk(charge.KindMaintenance)
			case "2":
				return m.openDesk(charge.KindService)
			}
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	if m.currentView == ViewSettle {
		var newModel tea.Model
		newModel, cmd = m.settleView.Update(msg)
		m.settleView = newModel.(view.SettlementModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		scope := "all owners"
		if m.scope.OwnerID != nil {
			scope = "owner " + m.scope.OwnerID.String()
		}

		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("%s · charge settlement\n", m.cfg.App.Name) +
				lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("Operator %s · %s · %s", m.cfg.App.Operator, scope, m.cfg.Ledger.URL)) +
				"\n\n" +
				"1. " + charge.KindMaintenance.Label() + " charges\n" +
				"2. " + charge.KindService.Label() + " charges\n\n" +
				"q. Quit",
		)
	case ViewSettle:
		return m.settleView.View()
	}

	return "Unknown View"
}

func main() {
	logFile, err := tea.LogToFile("settle-tui.log", "settle")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
