// Package ledger reads character ownership straight from the on-chain
// ledgers. These reads are the ground truth the indexers are checked against.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/kelsos/spaza-sync/internal/logger"
	"github.com/kelsos/spaza-sync/internal/models"
)

// SourceName tags every listing produced by the reader
const SourceName = "ledger"

// ErrNoCaller is logged when the reader was built without an RPC connection
var ErrNoCaller = errors.New("ledger: no contract caller configured")

// TierID names the multi-token getter that returns a tier's token id
type TierID struct {
	Tier   models.Tier
	Method string
}

// Config is the immutable description of the ledgers the reader queries
type Config struct {
	MultiToken  common.Address
	SingleToken common.Address

	// TierIDs is read in order; the order is the dedup precedence of the listings
	TierIDs []TierID

	// ProbeTokenID is the single-token id whose tokenURI represents the tier,
	// the ledger cannot enumerate tokens by owner
	ProbeTokenID *big.Int

	// SyntheticTokenID identifies the single-token listing in place of a real id
	SyntheticTokenID string

	// Placeholder replaces an unreadable single-token metadata reference
	Placeholder string
}

// NewConfig builds the ledger configuration used by the game contracts
func NewConfig(multiToken, singleToken common.Address, placeholder string) Config {
	return Config{
		MultiToken:  multiToken,
		SingleToken: singleToken,
		TierIDs: []TierID{
			{Tier: models.TierLatjie, Method: "LATJIE"},
			{Tier: models.TierLepara, Method: "LEPARA"},
		},
		ProbeTokenID:     big.NewInt(1),
		SyntheticTokenID: "grootman",
		Placeholder:      placeholder,
	}
}

// Reader performs the stateless contract calls against both ledgers
type Reader struct {
	cfg       Config
	caller    ethereum.ContractCaller
	multiABI  abi.ABI
	singleABI abi.ABI
}

// NewReader creates a reader. caller is usually an *ethclient.Client.
func NewReader(cfg Config, caller ethereum.ContractCaller) *Reader {
	return &Reader{
		cfg:       cfg,
		caller:    caller,
		multiABI:  MultiTokenABI(),
		singleABI: SingleTokenABI(),
	}
}

type resolvedID struct {
	tier models.Tier
	id   *big.Int
}

// ReadOwnedByWallet returns one listing per tier the wallet holds on chain.
// Every failed call only drops the listing it was needed for.
func (r *Reader) ReadOwnedByWallet(ctx context.Context, wallet string) []models.RawListing {
	if r.caller == nil {
		logger.Warn("Skipping ledger read: %v", ErrNoCaller)
		return nil
	}

	if !common.IsHexAddress(wallet) {
		logger.Warn("Skipping ledger read: %q is not a valid address", wallet)
		return nil
	}
	owner := common.HexToAddress(wallet)

	ids := make([]resolvedID, 0, len(r.cfg.TierIDs))
	for _, tierID := range r.cfg.TierIDs {
		id, err := r.callBig(ctx, r.cfg.MultiToken, r.multiABI, tierID.Method)
		if err != nil {
			logger.Warn("Failed to resolve %s token id: %v", tierID.Tier, err)
			continue
		}
		ids = append(ids, resolvedID{tier: tierID.Tier, id: id})
	}

	listings := make([]models.RawListing, 0, len(ids)+1)
	for _, rid := range ids {
		if listing, ok := r.readMultiToken(ctx, owner, rid); ok {
			listings = append(listings, listing)
		}
	}

	if listing, ok := r.readSingleToken(ctx, owner); ok {
		listings = append(listings, listing)
	}

	logger.Debug("Ledger read found %d listings for %s", len(listings), owner.Hex())
	return listings
}

func (r *Reader) readMultiToken(ctx context.Context, owner common.Address, rid resolvedID) (models.RawListing, bool) {
	balance, err := r.callBig(ctx, r.cfg.MultiToken, r.multiABI, methodBalanceOf, owner, rid.id)
	if err != nil {
		logger.Warn("Failed to read %s balance: %v", rid.tier, err)
		return models.RawListing{}, false
	}
	if balance.Sign() <= 0 {
		return models.RawListing{}, false
	}

	uri, err := r.callString(ctx, r.cfg.MultiToken, r.multiABI, methodURI, rid.id)
	if err != nil {
		logger.Debug("Failed to read %s metadata uri: %v", rid.tier, err)
		uri = ""
	}

	return models.RawListing{
		TokenID:  rid.id.String(),
		Name:     string(rid.tier),
		Image:    uri,
		Contract: r.cfg.MultiToken.Hex(),
		Tier:     rid.tier,
		Source:   SourceName,
	}, true
}

func (r *Reader) readSingleToken(ctx context.Context, owner common.Address) (models.RawListing, bool) {
	balance, err := r.callBig(ctx, r.cfg.SingleToken, r.singleABI, methodBalanceOf, owner)
	if err != nil {
		logger.Warn("Failed to read %s balance: %v", models.TierGrootman, err)
		return models.RawListing{}, false
	}
	if balance.Sign() <= 0 {
		return models.RawListing{}, false
	}

	uri, err := r.callString(ctx, r.cfg.SingleToken, r.singleABI, methodTokenURI, r.cfg.ProbeTokenID)
	if err != nil || uri == "" {
		logger.Debug("Failed to read %s token uri, using placeholder: %v", models.TierGrootman, err)
		uri = r.cfg.Placeholder
	}

	return models.RawListing{
		TokenID:  r.cfg.SyntheticTokenID,
		Name:     string(models.TierGrootman),
		Image:    uri,
		Contract: r.cfg.SingleToken.Hex(),
		Tier:     models.TierGrootman,
		Source:   SourceName,
	}, true
}

func (r *Reader) callBig(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	value, err := r.call(ctx, contract, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want uint256", method, value)
	}
	return n, nil
}

func (r *Reader) callString(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) (string, error) {
	value, err := r.call(ctx, contract, parsed, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s returned %T, want string", method, value)
	}
	return s, nil
}

// call runs a single-output view function at the latest block
func (r *Reader) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) (interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}

	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values, want 1", method, len(values))
	}
	return values[0], nil
}
