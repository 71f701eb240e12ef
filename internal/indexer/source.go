// Package indexer queries third-party NFT indexing services for the
// characters a wallet owns. Indexers are advisory: any of them may be
// unconfigured, down or wrong, and the ledger read is what settles ownership.
package indexer

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kelsos/spaza-sync/internal/models"
	"github.com/kelsos/spaza-sync/internal/utils"
)

// Source is one indexing service in the fallback chain
type Source interface {
	// Name identifies the service in logs and listing tags
	Name() string
	// Enabled is false when the service has no credential configured
	Enabled() bool
	// TryFetch returns the wallet's listings; an error means the next source is tried
	TryFetch(ctx context.Context, wallet string) ([]models.RawListing, error)
}

// JSONGetter performs authenticated GETs returning a JSON body
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// fieldPaths lists, per listing attribute, the gjson paths tried in order
type fieldPaths struct {
	list     []string
	name     []string
	image    []string
	tokenID  []string
	contract []string
}

// parseListings normalizes a service response into raw listings.
// A document without any of the list paths is a valid empty answer.
func parseListings(body []byte, source string, paths fieldPaths) []models.RawListing {
	doc := gjson.ParseBytes(body)

	var items []gjson.Result
	for _, p := range paths.list {
		if v := doc.Get(p); v.IsArray() {
			items = v.Array()
			break
		}
	}

	listings := make([]models.RawListing, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}

		name := firstString(item, paths.name...)
		if name == "" {
			name = models.UnknownName
		}

		listings = append(listings, models.RawListing{
			TokenID:  utils.DecimalTokenID(firstString(item, paths.tokenID...)),
			Name:     name,
			Image:    firstString(item, paths.image...),
			Contract: firstString(item, paths.contract...),
			Tier:     InferTier(name),
			Source:   source,
		})
	}
	return listings
}

// firstString returns the first non-empty string or number found at paths
func firstString(item gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := lookup(item, p)
		switch v.Type {
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		case gjson.Number:
			// Raw keeps ids beyond float64 precision intact
			return v.Raw
		}
	}
	return ""
}

// lookup resolves path on item, descending into objects that were
// serialized as JSON strings (Moralis ships metadata that way).
func lookup(item gjson.Result, path string) gjson.Result {
	if v := item.Get(path); v.Exists() {
		return v
	}

	head, rest, ok := strings.Cut(path, ".")
	if !ok {
		return gjson.Result{}
	}

	embedded := item.Get(head)
	if embedded.Type == gjson.String && gjson.Valid(embedded.Str) {
		return gjson.Get(embedded.Str, rest)
	}
	return gjson.Result{}
}

// InferTier derives the tier from a display name. Unmatched names are Latjie.
func InferTier(name string) models.Tier {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "grootman"):
		return models.TierGrootman
	case strings.Contains(lower, "lepara"):
		return models.TierLepara
	default:
		return models.TierLatjie
	}
}
