// Package uri turns the image references found in indexer listings and ledger
// metadata into references a client can render directly.
package uri

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kelsos/spaza-sync/internal/logger"
	"github.com/kelsos/spaza-sync/internal/utils"
)

// MaxDepth bounds how many times template substitution and metadata
// dereferencing may feed back into normalization.
const MaxDepth = 2

const (
	ipfsScheme   = "ipfs://"
	ipfsPath     = "/ipfs/"
	idTemplate   = "{id}"
	dataScheme   = "data:"
	ipfsNSPrefix = "ipfs/"
)

// imageFields are the document fields an image reference is read from, in order
var imageFields = []string{"image", "image_url", "imageUrl"}

// DocumentFetcher fetches a JSON metadata document
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) ([]byte, error)
}

// Normalizer rewrites raw image references. It never fails: every
// unresolvable reference becomes the placeholder.
type Normalizer struct {
	gateway       string
	placeholder   string
	knownGateways []string
	fetcher       DocumentFetcher
}

// NewNormalizer creates a normalizer rewriting content-addressed references
// onto gateway. fetcher may be nil, in which case metadata documents are
// never dereferenced.
func NewNormalizer(gateway, placeholder string, fetcher DocumentFetcher) *Normalizer {
	known := []string{"pinata", "ipfs.io"}
	if u, err := url.Parse(gateway); err == nil && u.Host != "" {
		known = append(known, u.Host)
	}

	return &Normalizer{
		gateway:       gateway,
		placeholder:   placeholder,
		knownGateways: known,
		fetcher:       fetcher,
	}
}

// Placeholder returns the reference used when nothing renderable is found
func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

// Normalize converts raw into a renderable reference. tokenID may be empty.
func (n *Normalizer) Normalize(ctx context.Context, raw, tokenID string) string {
	return n.normalize(ctx, raw, tokenID, 0)
}

func (n *Normalizer) normalize(ctx context.Context, raw, tokenID string, depth int) string {
	val := strings.TrimSpace(raw)
	if val == "" || val == n.placeholder {
		return n.placeholder
	}

	if strings.HasPrefix(val, dataScheme) {
		return val
	}

	if strings.HasPrefix(val, ipfsScheme) {
		path := strings.TrimPrefix(strings.TrimPrefix(val, ipfsScheme), ipfsNSPrefix)
		return n.gateway + path
	}

	if strings.HasPrefix(val, ipfsPath) {
		return n.gateway + strings.TrimPrefix(val, ipfsPath)
	}

	if n.isPinnedGatewayURL(val) {
		return val
	}

	if strings.Contains(val, idTemplate) && tokenID != "" {
		if hex, ok := utils.HexTokenID(tokenID); ok {
			if depth >= MaxDepth {
				logger.Debug("Template %s exceeded normalization depth", val)
				return n.placeholder
			}
			// the substituted id is final, later documents may not re-template it
			return n.normalize(ctx, strings.ReplaceAll(val, idTemplate, hex), "", depth+1)
		}
	}

	// a reference that is not a readable document is kept as a plain URL,
	// the depth cap only stops a further dereference
	if isHTTP(val) && looksLikeDocument(val) {
		if image, ok := n.imageFromDocument(ctx, val); ok && image != val {
			if depth >= MaxDepth {
				logger.Debug("Metadata document %s exceeded normalization depth", val)
				return n.placeholder
			}
			return n.normalize(ctx, image, tokenID, depth+1)
		}
	}

	if isHTTP(val) {
		return val
	}

	return n.placeholder
}

// isPinnedGatewayURL matches absolute URLs already served by a known IPFS gateway
func (n *Normalizer) isPinnedGatewayURL(val string) bool {
	if !isHTTP(val) || !strings.Contains(val, ipfsPath) {
		return false
	}

	u, err := url.Parse(val)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Host)
	for _, known := range n.knownGateways {
		if strings.Contains(host, strings.ToLower(known)) {
			return true
		}
	}
	return false
}

// imageFromDocument fetches a metadata document and extracts its image field
func (n *Normalizer) imageFromDocument(ctx context.Context, docURL string) (string, bool) {
	if n.fetcher == nil {
		return "", false
	}

	doc, err := n.fetcher.FetchDocument(ctx, docURL)
	if err != nil {
		logger.Debug("Failed to fetch metadata document %s: %v", docURL, err)
		return "", false
	}

	for _, field := range imageFields {
		value := gjson.GetBytes(doc, field)
		if value.Type == gjson.String && strings.TrimSpace(value.Str) != "" {
			return value.Str, true
		}
	}

	logger.Debug("Metadata document %s has no image field", docURL)
	return "", false
}

func isHTTP(val string) bool {
	lower := strings.ToLower(val)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// looksLikeDocument matches references that probably point at token metadata
// rather than at the image itself.
func looksLikeDocument(val string) bool {
	lower := strings.ToLower(val)
	if u, err := url.Parse(lower); err == nil && strings.HasSuffix(u.Path, ".json") {
		return true
	}
	return strings.Contains(lower, "metadata") || strings.Contains(lower, "token")
}
