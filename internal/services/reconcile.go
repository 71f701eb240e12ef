package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kelsos/spaza-sync/internal/client"
	"github.com/kelsos/spaza-sync/internal/config"
	"github.com/kelsos/spaza-sync/internal/indexer"
	"github.com/kelsos/spaza-sync/internal/ledger"
	"github.com/kelsos/spaza-sync/internal/logger"
	"github.com/kelsos/spaza-sync/internal/merge"
	"github.com/kelsos/spaza-sync/internal/models"
	"github.com/kelsos/spaza-sync/internal/uri"
)

// GenericErrorMessage is the only failure text a wallet owner ever sees
const GenericErrorMessage = "Could not load your characters"

// Stage is a step of one reconciliation
type Stage string

const (
	StageIdle     Stage = "idle"
	StageIndexers Stage = "indexers"
	StageLedger   Stage = "ledger"
	StageMerge    Stage = "merge"
	StageComplete Stage = "complete"
)

// StageFunc is notified when a reconciliation enters a stage
type StageFunc func(wallet string, stage Stage)

// ExternalSource supplies the indexer listings of a wallet
type ExternalSource interface {
	QueryExternal(ctx context.Context, wallet string) []models.RawListing
}

// LedgerSource supplies the on-chain listings of a wallet
type LedgerSource interface {
	ReadOwnedByWallet(ctx context.Context, wallet string) []models.RawListing
}

// ReconcileService orchestrates indexers, ledger reads and the merge into
// one result per wallet
type ReconcileService struct {
	external   ExternalSource
	ledger     LedgerSource
	normalizer merge.ImageNormalizer
	onStage    StageFunc
	rpc        *ethclient.Client

	mu      sync.Mutex
	results map[string]models.Result
}

// Option configures a ReconcileService
type Option func(*ReconcileService)

// WithStageHook registers fn to be called on every stage transition
func WithStageHook(fn StageFunc) Option {
	return func(s *ReconcileService) {
		s.onStage = fn
	}
}

// NewReconcileService creates a service over the given collaborators
func NewReconcileService(external ExternalSource, ledgerSource LedgerSource, normalizer merge.ImageNormalizer, opts ...Option) *ReconcileService {
	s := &ReconcileService{
		external:   external,
		ledger:     ledgerSource,
		normalizer: normalizer,
		results:    make(map[string]models.Result),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReconcileServiceFromConfig wires the production pipeline: the HTTP
// client, the indexers in priority order, the RPC connection and the
// normalizer. An unreachable RPC endpoint only disables ledger reads.
func NewReconcileServiceFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*ReconcileService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	httpClient := client.NewClient(cfg.HTTPTimeout)

	aggregator := indexer.NewAggregator(
		indexer.NewMoralisSource(httpClient, cfg.MoralisKey, cfg.MoralisChain),
		indexer.NewAlchemySource(httpClient, cfg.AlchemyKey, cfg.AlchemyNetwork),
		indexer.NewZoraSource(httpClient, cfg.ZoraKey, cfg.ZoraChain),
	)

	ledgerCfg := ledger.NewConfig(
		common.HexToAddress(cfg.MultiTokenAddress),
		common.HexToAddress(cfg.SingleTokenAddress),
		cfg.Placeholder,
	)

	var caller ethereum.ContractCaller
	rpc, err := ledger.Dial(ctx, cfg.RPCURL)
	if err != nil {
		logger.Warn("Ledger reads disabled: %v", err)
	} else {
		caller = rpc
	}

	normalizer := uri.NewNormalizer(cfg.IPFSGateway, cfg.Placeholder, httpClient)

	s := NewReconcileService(aggregator, ledger.NewReader(ledgerCfg, caller), normalizer, opts...)
	s.rpc = rpc
	return s, nil
}

// Reconcile rebuilds the asset set of wallet. It never fails: an unexpected
// error yields an empty asset set with the generic error message.
// A blank wallet has no result of its own: it gets an empty one and no
// stored result is touched.
func (s *ReconcileService) Reconcile(ctx context.Context, wallet string) models.Result {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		logger.Debug("No wallet connected, nothing to reconcile")
		return models.Result{Assets: []models.Asset{}}
	}

	logger.Info("Starting reconciliation for wallet: %s", wallet)
	s.store(wallet, models.Result{Assets: []models.Asset{}, Loading: true})

	result := models.Result{}
	assets, err := s.run(ctx, wallet)
	if err != nil {
		logger.Error("Reconciliation failed for %s: %v", wallet, err)
		result.Assets = []models.Asset{}
		result.Error = GenericErrorMessage
	} else {
		result.Assets = assets
	}

	s.store(wallet, result)
	s.stage(wallet, StageComplete)
	logger.Info("Completed reconciliation for wallet: %s (%d assets)", wallet, len(result.Assets))
	return result
}

// run executes the pipeline, turning a panic anywhere in it into an error
func (s *ReconcileService) run(ctx context.Context, wallet string) (assets []models.Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			assets = nil
			err = fmt.Errorf("pipeline panicked: %v", r)
		}
	}()

	s.stage(wallet, StageIndexers)
	aggregated := s.external.QueryExternal(ctx, wallet)

	s.stage(wallet, StageLedger)
	onChain := s.ledger.ReadOwnedByWallet(ctx, wallet)

	s.stage(wallet, StageMerge)
	return merge.Merge(ctx, s.normalizer, aggregated, onChain), nil
}

// Current returns the last result written for wallet
func (s *ReconcileService) Current(wallet string) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.results[walletKey(wallet)]; ok {
		return r
	}
	return models.Result{Assets: []models.Asset{}}
}

// Cleanup releases the RPC connection
func (s *ReconcileService) Cleanup() {
	if s.rpc != nil {
		s.rpc.Close()
	}
}

func (s *ReconcileService) store(wallet string, result models.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[walletKey(wallet)] = result
}

func (s *ReconcileService) stage(wallet string, stage Stage) {
	if s.onStage != nil {
		s.onStage(wallet, stage)
	}
}

func walletKey(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}
