package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelsos/spaza-sync/internal/client"
	"github.com/kelsos/spaza-sync/internal/models"
)

const (
	moralisBaseURL = "https://deep-index.moralis.io/api/v2"
	zoraBaseURL    = "https://api.zora.co/v1/nfts"
)

var moralisPaths = fieldPaths{
	list:     []string{"result", "nfts"},
	name:     []string{"metadata.name", "name", "title"},
	image:    []string{"metadata.image", "image", "token_uri"},
	tokenID:  []string{"token_id", "tokenId", "tokenIdRaw"},
	contract: []string{"token_address", "contract", "contractAddress"},
}

var alchemyPaths = fieldPaths{
	list:     []string{"ownedNfts", "owned_nfts", "nfts"},
	name:     []string{"metadata.name", "token.metadata.name", "title", "contract.name"},
	image:    []string{"metadata.image", "token.metadata.image", "media.0.gateway"},
	tokenID:  []string{"id.tokenId", "tokenId", "token_id"},
	contract: []string{"contract.address", "contractAddress"},
}

var zoraPaths = fieldPaths{
	list:     []string{"nfts"},
	name:     []string{"name"},
	image:    []string{"image"},
	tokenID:  []string{"tokenId"},
	contract: []string{"contractAddress"},
}

// MoralisSource queries the Moralis deep index
type MoralisSource struct {
	BaseURL string
	getter  JSONGetter
	key     string
	chain   string
}

func NewMoralisSource(getter JSONGetter, key, chain string) *MoralisSource {
	return &MoralisSource{BaseURL: moralisBaseURL, getter: getter, key: key, chain: chain}
}

func (s *MoralisSource) Name() string  { return "moralis" }
func (s *MoralisSource) Enabled() bool { return s.key != "" }

func (s *MoralisSource) TryFetch(ctx context.Context, wallet string) ([]models.RawListing, error) {
	endpoint := client.BuildURLWithParams(fmt.Sprintf("%s/%s/nft", s.BaseURL, wallet), map[string]string{
		"chain":  s.chain,
		"format": "decimal",
	})

	body, err := s.getter.GetJSON(ctx, endpoint, map[string]string{"X-API-Key": s.key})
	if err != nil {
		return nil, fmt.Errorf("moralis: %w", err)
	}
	return parseListings(body, s.Name(), moralisPaths), nil
}

// AlchemySource queries Alchemy's getNFTs endpoint; the key is part of the path
type AlchemySource struct {
	BaseURL string
	getter  JSONGetter
	key     string
}

func NewAlchemySource(getter JSONGetter, key, network string) *AlchemySource {
	return &AlchemySource{
		BaseURL: fmt.Sprintf("https://%s.g.alchemy.com/v2", strings.TrimSpace(network)),
		getter:  getter,
		key:     key,
	}
}

func (s *AlchemySource) Name() string  { return "alchemy" }
func (s *AlchemySource) Enabled() bool { return s.key != "" }

func (s *AlchemySource) TryFetch(ctx context.Context, wallet string) ([]models.RawListing, error) {
	endpoint := client.BuildURLWithParams(fmt.Sprintf("%s/%s/getNFTs", s.BaseURL, s.key), map[string]string{
		"owner": wallet,
	})

	body, err := s.getter.GetJSON(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("alchemy: %w", err)
	}
	return parseListings(body, s.Name(), alchemyPaths), nil
}

// ZoraSource queries the Zora NFT API
type ZoraSource struct {
	BaseURL string
	getter  JSONGetter
	key     string
	chain   string
}

func NewZoraSource(getter JSONGetter, key, chain string) *ZoraSource {
	return &ZoraSource{BaseURL: zoraBaseURL, getter: getter, key: key, chain: chain}
}

func (s *ZoraSource) Name() string  { return "zora" }
func (s *ZoraSource) Enabled() bool { return s.key != "" }

func (s *ZoraSource) TryFetch(ctx context.Context, wallet string) ([]models.RawListing, error) {
	endpoint := client.BuildURLWithParams(s.BaseURL, map[string]string{
		"owner": wallet,
		"chain": s.chain,
	})

	body, err := s.getter.GetJSON(ctx, endpoint, map[string]string{"X-API-KEY": s.key})
	if err != nil {
		return nil, fmt.Errorf("zora: %w", err)
	}
	return parseListings(body, s.Name(), zoraPaths), nil
}
