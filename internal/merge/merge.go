// Package merge combines indexer and ledger listings into the deduplicated
// asset list a wallet is shown.
package merge

import (
	"context"
	"strings"

	"github.com/kelsos/spaza-sync/internal/models"
)

// ImageNormalizer resolves a raw image reference to something displayable
type ImageNormalizer interface {
	Normalize(ctx context.Context, raw, tokenID string) string
}

// Merge concatenates aggregated then ledger listings, keeps the first listing
// per identity key and resolves the image of every survivor.
// Output order is first-occurrence order of the concatenation.
func Merge(ctx context.Context, normalizer ImageNormalizer, aggregated, ledger []models.RawListing) []models.Asset {
	seen := make(map[string]struct{}, len(aggregated)+len(ledger))
	assets := make([]models.Asset, 0, len(aggregated)+len(ledger))

	for _, listings := range [][]models.RawListing{aggregated, ledger} {
		for _, l := range listings {
			key := l.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			assets = append(assets, toAsset(ctx, normalizer, l))
		}
	}
	return assets
}

func toAsset(ctx context.Context, normalizer ImageNormalizer, l models.RawListing) models.Asset {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = models.UnknownName
	}

	image := l.Image
	if normalizer != nil {
		image = normalizer.Normalize(ctx, l.Image, l.TokenID)
	}

	return models.Asset{
		TokenID:     l.TokenID,
		DisplayName: name,
		ImageRef:    image,
		ContractRef: l.Contract,
		Tier:        l.Tier,
	}
}
