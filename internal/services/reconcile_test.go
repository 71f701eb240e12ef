package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/spaza-sync/internal/config"
	"github.com/kelsos/spaza-sync/internal/models"
	"github.com/kelsos/spaza-sync/internal/uri"
)

const wallet = "0x1111111111111111111111111111111111111111"

type fixedExternal struct {
	listings []models.RawListing
	panics   bool
}

func (f fixedExternal) QueryExternal(ctx context.Context, wallet string) []models.RawListing {
	if f.panics {
		panic("index out of range")
	}
	return f.listings
}

type fixedLedger struct {
	listings []models.RawListing
}

func (f fixedLedger) ReadOwnedByWallet(ctx context.Context, wallet string) []models.RawListing {
	return f.listings
}

func testNormalizer() *uri.Normalizer {
	return uri.NewNormalizer("https://dweb.link/ipfs/", "/assets/placeholder.png", nil)
}

func TestReconcileMergesBothSources(t *testing.T) {
	external := fixedExternal{listings: []models.RawListing{
		{TokenID: "1", Name: "Lepara #1", Image: "ipfs://bafy/1.png", Contract: "0xABC", Tier: models.TierLepara},
	}}
	onChain := fixedLedger{listings: []models.RawListing{
		{TokenID: "1", Name: "Lepara", Contract: "0xabc", Tier: models.TierLepara},
		{TokenID: "grootman", Name: "Grootman", Contract: "0xdef", Tier: models.TierGrootman},
	}}

	s := NewReconcileService(external, onChain, testNormalizer())
	result := s.Reconcile(context.Background(), wallet)

	assert.False(t, result.Loading)
	assert.Empty(t, result.Error)
	require.Len(t, result.Assets, 2)
	assert.Equal(t, "Lepara #1", result.Assets[0].DisplayName)
	assert.Equal(t, "https://dweb.link/ipfs/bafy/1.png", result.Assets[0].ImageRef)
	assert.Equal(t, "/assets/placeholder.png", result.Assets[1].ImageRef)
	assert.Equal(t, result, s.Current(wallet))
}

func TestReconcileTotalUnavailability(t *testing.T) {
	s := NewReconcileService(fixedExternal{}, fixedLedger{}, testNormalizer())
	result := s.Reconcile(context.Background(), wallet)

	assert.Equal(t, models.Result{Assets: []models.Asset{}}, result)
}

func TestReconcileRecoversUnexpectedErrors(t *testing.T) {
	onChain := fixedLedger{listings: []models.RawListing{{TokenID: "7", Contract: "0xa"}}}
	s := NewReconcileService(fixedExternal{panics: true}, onChain, testNormalizer())

	result := s.Reconcile(context.Background(), wallet)

	assert.Equal(t, GenericErrorMessage, result.Error)
	assert.False(t, result.Loading)
	assert.NotNil(t, result.Assets)
	assert.Empty(t, result.Assets)
}

func TestReconcileBlankWalletSeesNoOtherWallet(t *testing.T) {
	onChain := fixedLedger{listings: []models.RawListing{{TokenID: "7", Contract: "0xa"}}}
	s := NewReconcileService(fixedExternal{}, onChain, testNormalizer())

	first := s.Reconcile(context.Background(), wallet)
	blank := s.Reconcile(context.Background(), "  ")

	assert.Equal(t, models.Result{Assets: []models.Asset{}}, blank)
	assert.Equal(t, first, s.Current(wallet))
	assert.Len(t, s.Current(wallet).Assets, 1)
}

func TestReconcileBlankWalletDuringInFlightRun(t *testing.T) {
	var blank models.Result
	var s *ReconcileService
	s = NewReconcileService(fixedExternal{}, fixedLedger{}, testNormalizer(), WithStageHook(func(w string, stage Stage) {
		if stage == StageLedger {
			blank = s.Reconcile(context.Background(), "")
		}
	}))

	s.Reconcile(context.Background(), wallet)

	assert.False(t, blank.Loading)
	assert.Equal(t, models.Result{Assets: []models.Asset{}}, blank)
}

func TestReconcileBlankWalletBeforeAnyRun(t *testing.T) {
	s := NewReconcileService(fixedExternal{}, fixedLedger{}, testNormalizer())
	assert.Equal(t, models.Result{Assets: []models.Asset{}}, s.Reconcile(context.Background(), ""))
}

func TestReconcileStageHook(t *testing.T) {
	var stages []Stage
	var loadingSeen bool

	var s *ReconcileService
	s = NewReconcileService(fixedExternal{}, fixedLedger{}, testNormalizer(), WithStageHook(func(w string, stage Stage) {
		assert.Equal(t, wallet, w)
		if stage == StageIndexers {
			loadingSeen = s.Current(w).Loading
		}
		stages = append(stages, stage)
	}))

	s.Reconcile(context.Background(), wallet)

	assert.True(t, loadingSeen)
	assert.Equal(t, []Stage{StageIndexers, StageLedger, StageMerge, StageComplete}, stages)
	assert.False(t, s.Current(wallet).Loading)
}

func TestReconcileWalletsAreIndependent(t *testing.T) {
	onChain := fixedLedger{listings: []models.RawListing{{TokenID: "7", Contract: "0xa"}}}
	s := NewReconcileService(fixedExternal{}, onChain, testNormalizer())

	wallets := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
	}

	var wg sync.WaitGroup
	for _, w := range wallets {
		wg.Add(1)
		go func(w string) {
			defer wg.Done()
			s.Reconcile(context.Background(), w)
		}(w)
	}
	wg.Wait()

	for _, w := range wallets {
		assert.Len(t, s.Current(w).Assets, 1)
	}
}

func TestCurrentUnknownWallet(t *testing.T) {
	s := NewReconcileService(fixedExternal{}, fixedLedger{}, testNormalizer())
	assert.Equal(t, models.Result{Assets: []models.Asset{}}, s.Current(wallet))
}

func TestNewReconcileServiceFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	s, err := NewReconcileServiceFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	s.Cleanup()

	cfg.IPFSGateway = "dweb.link"
	_, err = NewReconcileServiceFromConfig(context.Background(), cfg)
	assert.Error(t, err)
}
