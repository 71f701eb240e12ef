package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kelsos/spaza-sync/internal/models"
	"github.com/kelsos/spaza-sync/internal/utils"
)

type walletReport struct {
	Wallet string        `json:"wallet"`
	Result models.Result `json:"result"`
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func writeJSON(w io.Writer, reports []walletReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func writeTables(w io.Writer, reports []walletReport) error {
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, renderReport(r)); err != nil {
			return err
		}
	}
	return nil
}

func renderReport(r walletReport) string {
	title := titleStyle.Render(fmt.Sprintf("Wallet %s", utils.ShortAddress(r.Wallet)))

	if r.Result.Error != "" {
		return title + "\n" + errorStyle.Render(r.Result.Error) + "\n"
	}
	if len(r.Result.Assets) == 0 {
		return title + "\n" + mutedStyle.Render("No characters found") + "\n"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIER", "TOKEN", "NAME", "CONTRACT", "IMAGE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, a := range r.Result.Assets {
		t.Row(string(a.Tier), a.TokenID, a.DisplayName, utils.ShortAddress(a.ContractRef), a.ImageRef)
	}

	counts := r.Result.CountByTier()
	summary := mutedStyle.Render(fmt.Sprintf("%s: %d  %s: %d  %s: %d",
		models.TierLatjie, counts[models.TierLatjie],
		models.TierLepara, counts[models.TierLepara],
		models.TierGrootman, counts[models.TierGrootman]))

	return title + "\n" + t.String() + "\n" + summary + "\n"
}
