package utils

import (
	"math/big"
	"strings"
)

// DecimalTokenID converts a 0x-prefixed hexadecimal token id to its decimal form.
// Anything else, including hex that fails to parse, is returned trimmed but otherwise untouched.
func DecimalTokenID(raw string) string {
	id := strings.TrimSpace(raw)
	if !strings.HasPrefix(id, "0x") && !strings.HasPrefix(id, "0X") {
		return id
	}

	n, ok := new(big.Int).SetString(id[2:], 16)
	if !ok {
		return id
	}
	return n.String()
}

// HexTokenID renders a decimal token id as 64 lowercase, zero padded hex digits,
// the form ERC-1155 metadata templates expect in place of {id}.
func HexTokenID(tokenID string) (string, bool) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(tokenID), 10)
	if !ok || n.Sign() < 0 {
		return "", false
	}

	hex := n.Text(16)
	if len(hex) > 64 {
		return "", false
	}
	return strings.Repeat("0", 64-len(hex)) + hex, true
}

// ShortAddress shortens a wallet address to 0x1234...abcd for display.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
