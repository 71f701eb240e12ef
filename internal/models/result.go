package models

// Result is the outcome of one reconciliation of a wallet.
type Result struct {
	Assets  []Asset `json:"assets"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error,omitempty"`
}

// HasTier reports whether the wallet owns at least one asset of the tier.
func (r Result) HasTier(tier Tier) bool {
	for _, a := range r.Assets {
		if a.Tier == tier {
			return true
		}
	}
	return false
}

// CountByTier counts owned assets per tier. Every tier is present in the map.
func (r Result) CountByTier() map[Tier]int {
	counts := make(map[Tier]int, len(Tiers))
	for _, tier := range Tiers {
		counts[tier] = 0
	}
	for _, a := range r.Assets {
		counts[a.Tier]++
	}
	return counts
}

// SameAssets reports whether two results hold the same assets in the same order.
func SameAssets(a, b Result) bool {
	if len(a.Assets) != len(b.Assets) {
		return false
	}
	for i := range a.Assets {
		if a.Assets[i] != b.Assets[i] {
			return false
		}
	}
	return true
}
