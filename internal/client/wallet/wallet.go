// Package wallet connects to an external wallet that exposes the EIP-1193
// request surface over JSON-RPC, such as a desktop wallet's local endpoint.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"go.uber.org/zap"
)

const (
	namespace          = "eth"
	subAccountsChanged = "accountsChanged"
	subChainChanged    = "chainChanged"
)

// ErrWalletClosed ends event subscriptions when the connection is closed.
var ErrWalletClosed = errors.New("wallet connection closed")

// RPCWallet implements chain.Wallet over an rpc.Client.
type RPCWallet struct {
	client *rpc.Client
	logger *zap.Logger
}

var _ chain.Wallet = (*RPCWallet)(nil)

// Dial connects to the wallet endpoint at url. Events need a websocket or
// IPC endpoint; plain HTTP supports requests only.
func Dial(ctx context.Context, url string) (*RPCWallet, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet: %w", err)
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client *rpc.Client) *RPCWallet {
	return &RPCWallet{client: client, logger: logger.Named("wallet")}
}

func (w *RPCWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.client.CallContext(ctx, &accounts, constants.MethodRequestAccounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (w *RPCWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.client.CallContext(ctx, &accounts, constants.MethodAccounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (w *RPCWallet) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := w.client.CallContext(ctx, &id, constants.MethodChainID); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (w *RPCWallet) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	return w.client.CallContext(ctx, result, method, params...)
}

// SubscribeEvents forwards account and chain changes to ch. The
// subscription fails when the wallet connection drops.
func (w *RPCWallet) SubscribeEvents(ctx context.Context, ch chan<- chain.Event) (event.Subscription, error) {
	accounts := make(chan []common.Address)
	chains := make(chan hexutil.Uint64)

	accountSub, err := w.client.Subscribe(ctx, namespace, accounts, subAccountsChanged)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subAccountsChanged, err)
	}
	chainSub, err := w.client.Subscribe(ctx, namespace, chains, subChainChanged)
	if err != nil {
		accountSub.Unsubscribe()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subChainChanged, err)
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer accountSub.Unsubscribe()
		defer chainSub.Unsubscribe()

		for {
			var ev chain.Event
			select {
			case list := <-accounts:
				ev = chain.Event{Type: chain.EventAccountsChanged, Accounts: list}
			case id := <-chains:
				ev = chain.Event{Type: chain.EventChainChanged, ChainID: uint64(id)}
			case err := <-accountSub.Err():
				return w.ended(subAccountsChanged, err)
			case err := <-chainSub.Err():
				return w.ended(subChainChanged, err)
			case <-quit:
				return nil
			}

			select {
			case ch <- ev:
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (w *RPCWallet) ended(topic string, err error) error {
	if err == nil {
		err = ErrWalletClosed
	}
	w.logger.Warn("Wallet subscription ended", zap.String("topic", topic), zap.Error(err))
	return err
}

// Close closes the underlying connection.
func (w *RPCWallet) Close() {
	w.client.Close()
}
