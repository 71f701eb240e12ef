// Package storage exports reconciliation results to disk. Snapshots are
// never read back by the pipeline.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kelsos/spaza-sync/internal/models"
)

// Snapshot is the on-disk form of a wallet's reconciled assets
type Snapshot struct {
	Wallet  string         `json:"wallet"`
	Assets  []models.Asset `json:"assets"`
	Error   string         `json:"error,omitempty"`
	SavedAt int64          `json:"saved_at"`
}

// GetAppDataDir returns the application data directory
func GetAppDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".spaza-sync"), nil
}

// SnapshotPath returns the snapshot file for wallet inside dir
func SnapshotPath(dir, wallet string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_assets.json", strings.ToLower(strings.TrimSpace(wallet))))
}

// SaveSnapshot writes result to the application data directory
func SaveSnapshot(wallet string, result models.Result) (string, error) {
	dir, err := GetAppDataDir()
	if err != nil {
		return "", err
	}
	return SaveSnapshotTo(dir, wallet, result)
}

// SaveSnapshotTo writes result into dir, creating it when needed, and
// returns the written file path. wallet must be a hex address since it
// names the file.
func SaveSnapshotTo(dir, wallet string, result models.Result) (string, error) {
	wallet = strings.TrimSpace(wallet)
	if !common.IsHexAddress(wallet) {
		return "", fmt.Errorf("wallet is not a valid address: %q", wallet)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	assets := result.Assets
	if assets == nil {
		assets = []models.Asset{}
	}

	data := Snapshot{
		Wallet:  wallet,
		Assets:  assets,
		Error:   result.Error,
		SavedAt: time.Now().Unix(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	filePath := SnapshotPath(dir, wallet)
	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return filePath, nil
}
