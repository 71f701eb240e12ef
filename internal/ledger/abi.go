package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// multiTokenABI is the read surface of the ERC-1155 character ledger (Latjie, Lepara)
const multiTokenABI = `[
	{"type":"function","name":"LATJIE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"LEPARA","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"uri","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]}
]`

// singleTokenABI is the read surface of the ERC-721 Grootman ledger
const singleTokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]}
]`

const (
	methodBalanceOf = "balanceOf"
	methodURI       = "uri"
	methodTokenURI  = "tokenURI"
)

// MultiTokenABI returns the parsed ERC-1155 ledger ABI
func MultiTokenABI() abi.ABI {
	return mustParse(multiTokenABI)
}

// SingleTokenABI returns the parsed ERC-721 ledger ABI
func SingleTokenABI() abi.ABI {
	return mustParse(singleTokenABI)
}

func mustParse(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("ledger: invalid ABI definition: " + err.Error())
	}
	return parsed
}
