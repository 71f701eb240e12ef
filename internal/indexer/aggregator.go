package indexer

import (
	"context"
	"fmt"

	"github.com/kelsos/spaza-sync/internal/logger"
	"github.com/kelsos/spaza-sync/internal/models"
)

// Aggregator walks the sources in priority order and keeps the first answer
type Aggregator struct {
	sources []Source
}

// NewAggregator creates an aggregator; sources are tried in the given order
func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

// Sources returns the configured sources in priority order
func (a *Aggregator) Sources() []Source {
	return a.sources
}

// QueryExternal returns the listings of the first enabled source that responds.
// No enabled source, or every source failing, yields an empty result.
func (a *Aggregator) QueryExternal(ctx context.Context, wallet string) []models.RawListing {
	for _, source := range a.sources {
		if !source.Enabled() {
			logger.Debug("Skipping %s: no credential configured", source.Name())
			continue
		}

		listings, err := tryFetch(ctx, source, wallet)
		if err != nil {
			logger.Warn("%s lookup failed, falling back: %v", source.Name(), err)
			continue
		}

		logger.Info("%s returned %d listings for %s", source.Name(), len(listings), wallet)
		return listings
	}

	logger.Debug("No indexer answered for %s", wallet)
	return nil
}

// tryFetch turns a panicking source into a failed one
func tryFetch(ctx context.Context, source Source, wallet string) (listings []models.RawListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			listings = nil
			err = fmt.Errorf("%s panicked: %v", source.Name(), r)
		}
	}()
	return source.TryFetch(ctx, wallet)
}
