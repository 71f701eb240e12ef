package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/spaza-sync/internal/models"
	"github.com/kelsos/spaza-sync/internal/services"
	"github.com/kelsos/spaza-sync/internal/utils"
)

const maxLogs = 10

// ReconcileFunc reconciles one wallet; it runs inside a tea.Cmd
type ReconcileFunc func(ctx context.Context, wallet string) models.Result

type WalletStatus struct {
	Wallet        string
	Stage         services.Stage
	Loading       bool
	Result        models.Result
	Reconciled    bool
	StartTime     time.Time
	CompletedTime time.Time
}

type Model struct {
	ctx            context.Context
	reconcile      ReconcileFunc
	interval       time.Duration
	wallets        []string
	walletStatuses map[string]*WalletStatus
	logs           []string
	spinner        spinner.Model
	progress       progress.Model
	width          int
	height         int
	quit           bool
	errorCount     int
	successCount   int
}

// StageUpdate reports a wallet entering a pipeline stage
type StageUpdate struct {
	Wallet string
	Stage  services.Stage
}

// ReconcileDone carries the result of one reconciliation
type ReconcileDone struct {
	Wallet string
	Result models.Result
}

type LogMessage struct {
	Message string
}

// RefreshRequest re-invokes reconciliation for every wallet not already loading
type RefreshRequest struct{}

type refreshTick struct{}

func NewModel(ctx context.Context, wallets []string, reconcile ReconcileFunc, interval time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	pr := progress.New(progress.WithDefaultGradient())

	m := Model{
		ctx:            ctx,
		reconcile:      reconcile,
		interval:       interval,
		wallets:        wallets,
		walletStatuses: make(map[string]*WalletStatus, len(wallets)),
		logs:           []string{},
		spinner:        sp,
		progress:       pr,
		width:          80,
		height:         24,
	}
	for _, w := range wallets {
		m.walletStatuses[w] = &WalletStatus{Wallet: w, Stage: services.StageIdle}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		func() tea.Msg { return RefreshRequest{} },
	}
	if m.interval > 0 {
		cmds = append(cmds, m.scheduleTick())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "r":
			var cmd tea.Cmd
			m, cmd = m.refresh()
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case RefreshRequest:
		var cmd tea.Cmd
		m, cmd = m.refresh()
		cmds = append(cmds, cmd)

	case refreshTick:
		var cmd tea.Cmd
		m, cmd = m.refresh()
		cmds = append(cmds, cmd, m.scheduleTick())

	case StageUpdate:
		m = m.handleStageUpdate(msg)

	case ReconcileDone:
		m = m.handleReconcileDone(msg)

	case LogMessage:
		m = m.appendLog(msg.Message)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		if progressModel, ok := progressModel.(progress.Model); ok {
			m.progress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh starts one reconciliation per idle wallet. Wallets still loading
// are skipped so a wallet never has two runs in flight from this monitor.
func (m Model) refresh() (Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, w := range m.wallets {
		status := m.walletStatuses[w]
		if status.Loading {
			continue
		}
		status.Loading = true
		status.Stage = services.StageIdle
		status.StartTime = time.Now()
		cmds = append(cmds, m.reconcileCmd(w))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) reconcileCmd(wallet string) tea.Cmd {
	ctx, reconcile := m.ctx, m.reconcile
	return func() tea.Msg {
		return ReconcileDone{Wallet: wallet, Result: reconcile(ctx, wallet)}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshTick{} })
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.progress.Width = msg.Width - 40
	return m
}

func (m Model) handleStageUpdate(msg StageUpdate) Model {
	if status, exists := m.walletStatuses[msg.Wallet]; exists && msg.Stage != services.StageComplete {
		status.Stage = msg.Stage
	}
	return m
}

func (m Model) handleReconcileDone(msg ReconcileDone) Model {
	status, exists := m.walletStatuses[msg.Wallet]
	if !exists {
		return m
	}

	unchanged := status.Reconciled && status.Result.Error == "" && msg.Result.Error == "" &&
		models.SameAssets(status.Result, msg.Result)

	status.Loading = false
	status.Stage = services.StageComplete
	status.CompletedTime = time.Now()
	status.Reconciled = true
	status.Result = msg.Result

	short := utils.ShortAddress(msg.Wallet)
	switch {
	case msg.Result.Error != "":
		m.errorCount++
		m = m.appendLog(fmt.Sprintf("❌ %s: %s", short, msg.Result.Error))
	case unchanged:
		m.successCount++
		m = m.appendLog(fmt.Sprintf("No change for %s", short))
	default:
		m.successCount++
		m = m.appendLog(fmt.Sprintf("✅ %s owns %d characters", short, len(msg.Result.Assets)))
	}
	return m
}

func (m Model) appendLog(message string) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
		time.Now().Format("15:04:05"), message))
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
	return m
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("🔄 Spaza Character Monitor"))
	s.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	summary := fmt.Sprintf("Wallets: %d | ✅ Success: %d | ❌ Errors: %d",
		len(m.wallets), m.successCount, m.errorCount)
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n\n")

	walletSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var walletStatus strings.Builder
	walletStatus.WriteString("📊 Wallet Status\n")
	walletStatus.WriteString(strings.Repeat("─", 60) + "\n")

	for _, w := range m.wallets {
		status, exists := m.walletStatuses[w]
		if !exists {
			continue
		}
		walletStatus.WriteString(m.renderWallet(status) + "\n")
	}

	s.WriteString(walletSectionStyle.Render(walletStatus.String()))
	s.WriteString("\n\n")

	logSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2).
		Height(8)

	var logSection strings.Builder
	logSection.WriteString("📝 Recent Logs\n")
	for _, log := range m.logs {
		logSection.WriteString(log + "\n")
	}

	s.WriteString(logSectionStyle.Render(logSection.String()))
	s.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	footer := "Press 'r' to refresh | 'q' to quit | Logs: logs/spaza-sync_*.log"
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func (m Model) renderWallet(status *WalletStatus) string {
	stageStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(getStageColor(status.Stage)))

	line := fmt.Sprintf("%s %-13s", getStageIcon(status.Stage), utils.ShortAddress(status.Wallet))

	if status.Loading {
		line += fmt.Sprintf(" %s %-9s %s", m.spinner.View(), status.Stage, m.progress.ViewAs(stageProgress(status.Stage)))
		return stageStyle.Render(line)
	}

	if !status.Reconciled {
		return stageStyle.Render(line + " waiting")
	}

	if status.Result.Error != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		return stageStyle.Render(line) + " " + errorStyle.Render(status.Result.Error)
	}

	counts := status.Result.CountByTier()
	parts := make([]string, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		parts = append(parts, fmt.Sprintf("%s: %d", tier, counts[tier]))
	}

	messageStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	return stageStyle.Render(line) + " " + messageStyle.Render(strings.Join(parts, "  "))
}

func stageProgress(stage services.Stage) float64 {
	switch stage {
	case services.StageIndexers:
		return 0.25
	case services.StageLedger:
		return 0.5
	case services.StageMerge:
		return 0.75
	case services.StageComplete:
		return 1.0
	default:
		return 0.05
	}
}

func getStageIcon(stage services.Stage) string {
	switch stage {
	case services.StageIdle:
		return "⏸"
	case services.StageIndexers:
		return "📡"
	case services.StageLedger:
		return "⛓️"
	case services.StageMerge:
		return "🔍"
	case services.StageComplete:
		return "✅"
	default:
		return "❓"
	}
}

func getStageColor(stage services.Stage) string {
	switch stage {
	case services.StageIdle:
		return "244"
	case services.StageComplete:
		return "82"
	default:
		return "39"
	}
}
