package models

import "strings"

// Tier is the rank of a character asset.
type Tier string

const (
	TierLatjie   Tier = "Latjie"   // T1
	TierLepara   Tier = "Lepara"   // T2
	TierGrootman Tier = "Grootman" // T3
)

// Tiers lists every tier from lowest to highest rank.
var Tiers = []Tier{TierLatjie, TierLepara, TierGrootman}

// UnknownName is the display name used when no source supplies one.
const UnknownName = "Unknown"

// Asset is a reconciled character owned by a wallet.
type Asset struct {
	TokenID     string `json:"token_id"`
	DisplayName string `json:"display_name"`
	ImageRef    string `json:"image_ref"`
	ContractRef string `json:"contract_ref"`
	Tier        Tier   `json:"tier"`
}

// Key returns the identity of the asset: lowercase contract plus token id.
func (a Asset) Key() string {
	return IdentityKey(a.ContractRef, a.TokenID)
}

// RawListing is an unvalidated record as returned by an indexer or a ledger read.
// Image may still be templated, content-addressed or point at a metadata document.
type RawListing struct {
	TokenID  string
	Name     string
	Image    string
	Contract string
	Tier     Tier
	Source   string
}

// Key returns the identity the listing will have once it becomes an Asset.
func (l RawListing) Key() string {
	return IdentityKey(l.Contract, l.TokenID)
}

// IdentityKey builds the composite key two assets share iff they are the same asset.
func IdentityKey(contract, tokenID string) string {
	return strings.ToLower(contract) + "::" + tokenID
}
