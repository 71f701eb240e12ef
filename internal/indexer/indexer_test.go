package indexer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/spaza-sync/internal/client"
	"github.com/kelsos/spaza-sync/internal/models"
)

const wallet = "0x1111111111111111111111111111111111111111"

// stubSource is a scripted Source
type stubSource struct {
	name     string
	enabled  bool
	listings []models.RawListing
	err      error
	panics   bool
	calls    int
}

func (s *stubSource) Name() string  { return s.name }
func (s *stubSource) Enabled() bool { return s.enabled }

func (s *stubSource) TryFetch(ctx context.Context, wallet string) ([]models.RawListing, error) {
	s.calls++
	if s.panics {
		panic("unexpected shape")
	}
	return s.listings, s.err
}

func TestAggregatorFallsThroughToSecondService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/moralis/" + wallet + "/nft":
			w.WriteHeader(http.StatusBadGateway)
		case "/zora":
			assert.Equal(t, "zora-key", r.Header.Get("X-API-KEY"))
			assert.Equal(t, wallet, r.URL.Query().Get("owner"))
			assert.Equal(t, "baseSepolia", r.URL.Query().Get("chain"))
			w.Write([]byte(`{"nfts":[{"tokenId":"5","name":"Lepara #5"}]}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer server.Close()

	getter := client.NewClientWithHTTP(server.Client())
	moralis := NewMoralisSource(getter, "moralis-key", "base-sepolia")
	moralis.BaseURL = server.URL + "/moralis"
	zora := NewZoraSource(getter, "zora-key", "baseSepolia")
	zora.BaseURL = server.URL + "/zora"

	listings := NewAggregator(moralis, zora).QueryExternal(context.Background(), wallet)

	require.Len(t, listings, 1)
	assert.Equal(t, "5", listings[0].TokenID)
	assert.Equal(t, models.TierLepara, listings[0].Tier)
	assert.Equal(t, "zora", listings[0].Source)
}

func TestAggregatorStopsAtFirstSuccessEvenWhenEmpty(t *testing.T) {
	first := &stubSource{name: "first", enabled: true, listings: nil}
	second := &stubSource{name: "second", enabled: true, listings: []models.RawListing{{TokenID: "1"}}}

	listings := NewAggregator(first, second).QueryExternal(context.Background(), wallet)

	assert.Empty(t, listings)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestAggregatorSkipsDisabledAndPanickingSources(t *testing.T) {
	disabled := &stubSource{name: "disabled", enabled: false}
	panicking := &stubSource{name: "panicking", enabled: true, panics: true}
	good := &stubSource{name: "good", enabled: true, listings: []models.RawListing{{TokenID: "9"}}}

	listings := NewAggregator(disabled, panicking, good).QueryExternal(context.Background(), wallet)

	require.Len(t, listings, 1)
	assert.Equal(t, "9", listings[0].TokenID)
	assert.Equal(t, 0, disabled.calls)
	assert.Equal(t, 1, panicking.calls)
}

func TestAggregatorAllFailing(t *testing.T) {
	a := &stubSource{name: "a", enabled: true, err: errors.New("down")}
	b := &stubSource{name: "b", enabled: true, err: errors.New("down")}

	assert.Empty(t, NewAggregator(a, b).QueryExternal(context.Background(), wallet))
	assert.Empty(t, NewAggregator().QueryExternal(context.Background(), wallet))
}

func TestSourcesWithoutKeyAreDisabled(t *testing.T) {
	getter := client.NewClient(0)

	assert.False(t, NewMoralisSource(getter, "", "base-sepolia").Enabled())
	assert.False(t, NewAlchemySource(getter, "", "base-sepolia").Enabled())
	assert.False(t, NewZoraSource(getter, "", "baseSepolia").Enabled())
	assert.True(t, NewAlchemySource(getter, "k", "base-sepolia").Enabled())
}

func TestMoralisParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "moralis-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "decimal", r.URL.Query().Get("format"))
		w.Write([]byte(`{"result":[
			{"token_id":"3","token_address":"0xABC","metadata":"{\"name\":\"Grootman #3\",\"image\":\"ipfs://bafy/g.png\"}"},
			{"token_id":"4","token_address":"0xabc","name":"Latjie","token_uri":"https://meta.example/4.json"},
			{"tokenId":"0x0a","contract":"0xdef","metadata":{"name":"Lepara","image":"/ipfs/bafy/l.png"}},
			{"token_address":"0xabc"}
		]}`))
	}))
	defer server.Close()

	source := NewMoralisSource(client.NewClientWithHTTP(server.Client()), "moralis-key", "base-sepolia")
	source.BaseURL = server.URL

	listings, err := source.TryFetch(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, listings, 4)

	assert.Equal(t, models.RawListing{TokenID: "3", Name: "Grootman #3", Image: "ipfs://bafy/g.png", Contract: "0xABC", Tier: models.TierGrootman, Source: "moralis"}, listings[0])
	assert.Equal(t, "https://meta.example/4.json", listings[1].Image)
	assert.Equal(t, models.TierLatjie, listings[1].Tier)
	assert.Equal(t, "10", listings[2].TokenID)
	assert.Equal(t, "0xdef", listings[2].Contract)
	assert.Equal(t, models.TierLepara, listings[2].Tier)
	assert.Equal(t, models.UnknownName, listings[3].Name)
	assert.Equal(t, models.TierLatjie, listings[3].Tier)
}

func TestAlchemyParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/alchemy-key/getNFTs", r.URL.Path)
		assert.Equal(t, wallet, r.URL.Query().Get("owner"))
		w.Write([]byte(`{"ownedNfts":[
			{"contract":{"address":"0x661925e1ef8405771a6ddcdfc6e19ce81820e86e","name":"Spaza"},
			 "id":{"tokenId":"0x0000000000000000000000000000000000000000000000000000000000000002"},
			 "title":"Lepara","media":[{"gateway":"https://nft-cdn.alchemy.com/lepara.png"}]},
			{"contract":{"address":"0xa023dcf1486ef3150ad6688c466f72b49c231fc7","name":"Grootman"},
			 "tokenId":7,"metadata":{"image":"ipfs://bafy/7.png"}},
			{"contract":{"address":"0x661925e1ef8405771a6ddcdfc6e19ce81820e86e","name":"Spaza"},
			 "tokenId":"1","title":"Latjie title",
			 "token":{"metadata":{"name":"Lepara #1","image":"ipfs://bafy/lepara-1.png"}},
			 "media":[{"gateway":"https://nft-cdn.alchemy.com/other.png"}]}
		]}`))
	}))
	defer server.Close()

	source := NewAlchemySource(client.NewClientWithHTTP(server.Client()), "alchemy-key", "base-sepolia")
	source.BaseURL = server.URL + "/v2"

	listings, err := source.TryFetch(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	assert.Equal(t, "2", listings[0].TokenID)
	assert.Equal(t, "Lepara", listings[0].Name)
	assert.Equal(t, models.TierLepara, listings[0].Tier)
	assert.Equal(t, "https://nft-cdn.alchemy.com/lepara.png", listings[0].Image)

	assert.Equal(t, "7", listings[1].TokenID)
	assert.Equal(t, "Grootman", listings[1].Name)
	assert.Equal(t, models.TierGrootman, listings[1].Tier)
	assert.Equal(t, "ipfs://bafy/7.png", listings[1].Image)

	assert.Equal(t, "1", listings[2].TokenID)
	assert.Equal(t, "Lepara #1", listings[2].Name)
	assert.Equal(t, models.TierLepara, listings[2].Tier)
	assert.Equal(t, "ipfs://bafy/lepara-1.png", listings[2].Image)
}

func TestAlchemyDefaultBaseURL(t *testing.T) {
	source := NewAlchemySource(client.NewClient(0), "k", "base-mainnet")
	assert.Equal(t, "https://base-mainnet.g.alchemy.com/v2", source.BaseURL)
}

func TestParseListingsWithoutList(t *testing.T) {
	assert.Empty(t, parseListings([]byte(`{"message":"ok"}`), "zora", zoraPaths))
	assert.Empty(t, parseListings([]byte(`{"nfts":"not a list"}`), "zora", zoraPaths))
}

func TestInferTier(t *testing.T) {
	tests := []struct {
		name string
		want models.Tier
	}{
		{"Latjie #1", models.TierLatjie},
		{"Lepara #5", models.TierLepara},
		{"lepara", models.TierLepara},
		{"LEPARA #9", models.TierLepara},
		{"grootman", models.TierGrootman},
		{"Lepara becomes Grootman", models.TierGrootman},
		{"Unknown", models.TierLatjie},
		{"", models.TierLatjie},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InferTier(tt.name), "name %q", tt.name)
	}
}
