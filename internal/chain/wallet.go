package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
)

// EventType names a wallet-originated event.
type EventType string

const (
	EventAccountsChanged EventType = "accountsChanged"
	EventChainChanged    EventType = "chainChanged"
	EventDisconnect      EventType = "disconnect"
)

// Event is an account, chain or disconnect notification pushed by the wallet.
type Event struct {
	Type     EventType
	Accounts []common.Address
	ChainID  uint64
}

// Wallet is the injected wallet capability: account access, the current
// chain, arbitrary provider requests and an event stream.
type Wallet interface {
	// RequestAccounts prompts the user for account access.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts returns already-authorised accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	// Request issues a provider request; result may be nil.
	Request(ctx context.Context, result interface{}, method string, params ...interface{}) error
	SubscribeEvents(ctx context.Context, ch chan<- Event) (event.Subscription, error)
}

// WalletSigner approves transactions through the wallet for one account.
type WalletSigner struct {
	wallet  Wallet
	account common.Address
}

// NewWalletSigner binds a wallet to an account.
func NewWalletSigner(wallet Wallet, account common.Address) *WalletSigner {
	return &WalletSigner{wallet: wallet, account: account}
}

func (s *WalletSigner) Address() common.Address {
	return s.account
}

type sendTxArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// SendTransaction asks the wallet to sign and broadcast a call to `to`. It
// returns once the wallet hands back the transaction hash.
func (s *WalletSigner) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	var hash common.Hash
	args := sendTxArgs{From: s.account, To: to, Data: data}
	if err := s.wallet.Request(ctx, &hash, constants.MethodSendTransaction, args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}
