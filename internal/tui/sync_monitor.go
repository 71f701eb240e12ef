package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/spaza-sync/internal/config"
	"github.com/kelsos/spaza-sync/internal/services"
)

// WalletMonitor runs the reconciliation of several wallets behind the TUI
type WalletMonitor struct {
	service *services.ReconcileService
	program *tea.Program
}

// NewWalletMonitor wires a reconcile service whose stage transitions are
// forwarded to the TUI
func NewWalletMonitor(ctx context.Context, cfg *config.Config, wallets []string, interval time.Duration) (*WalletMonitor, error) {
	wm := &WalletMonitor{}

	service, err := services.NewReconcileServiceFromConfig(ctx, cfg, services.WithStageHook(wm.UpdateStage))
	if err != nil {
		return nil, err
	}
	wm.service = service

	model := NewModel(ctx, wallets, service.Reconcile, interval)
	wm.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	return wm, nil
}

// UpdateStage forwards a stage transition to the running program
func (wm *WalletMonitor) UpdateStage(wallet string, stage services.Stage) {
	if wm.program != nil {
		wm.program.Send(StageUpdate{Wallet: wallet, Stage: stage})
	}
}

// Run blocks until the user quits
func (wm *WalletMonitor) Run() error {
	defer wm.service.Cleanup()

	if _, err := wm.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
