package chain

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
)

// NativeCurrency describes a chain's gas token for wallet_addEthereumChain.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Network is the single supported chain.
type Network struct {
	ChainID      uint64         `json:"chainId"`
	Name         string         `json:"name"`
	Currency     NativeCurrency `json:"nativeCurrency"`
	RPCURLs      []string       `json:"rpcUrls"`
	ExplorerURLs []string       `json:"blockExplorerUrls"`
}

// BSCMainnet is the production network.
func BSCMainnet() Network {
	return Network{
		ChainID:      constants.BSCMainnetChainID,
		Name:         "Binance Smart Chain",
		Currency:     NativeCurrency{Name: "BNB", Symbol: "BNB", Decimals: 18},
		RPCURLs:      []string{"https://bsc-dataseed.binance.org/"},
		ExplorerURLs: []string{"https://bscscan.com/"},
	}
}

// BSCTestnet is the public test network.
func BSCTestnet() Network {
	return Network{
		ChainID:      constants.BSCTestnetChainID,
		Name:         "Binance Smart Chain Testnet",
		Currency:     NativeCurrency{Name: "tBNB", Symbol: "tBNB", Decimals: 18},
		RPCURLs:      []string{"https://data-seed-prebsc-1-s1.binance.org:8545/"},
		ExplorerURLs: []string{"https://testnet.bscscan.com/"},
	}
}

// ChainIDHex is the 0x-prefixed chain ID wallets expect.
func (n Network) ChainIDHex() string {
	return hexutil.EncodeUint64(n.ChainID)
}

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

type addChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

func (n Network) switchParams() switchChainParams {
	return switchChainParams{ChainID: n.ChainIDHex()}
}

func (n Network) addParams() addChainParams {
	return addChainParams{
		ChainID:           n.ChainIDHex(),
		ChainName:         n.Name,
		NativeCurrency:    n.Currency,
		RPCURLs:           n.RPCURLs,
		BlockExplorerURLs: n.ExplorerURLs,
	}
}

// NetworkName returns a display name for well-known chain IDs.
func NetworkName(chainID uint64) string {
	switch chainID {
	case 0:
		return "Not Connected"
	case 1:
		return "Ethereum Mainnet"
	case constants.BSCMainnetChainID:
		return "Binance Smart Chain"
	case constants.BSCTestnetChainID:
		return "Binance Smart Chain Testnet"
	default:
		return "Unknown Network"
	}
}
