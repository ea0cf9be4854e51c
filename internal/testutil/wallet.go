// Package testutil holds in-memory fakes shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
)

// ProviderError is an EIP-1193 style error with a numeric code.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string  { return e.Message }
func (e *ProviderError) ErrorCode() int { return e.Code }

// Rejected is the error a wallet returns when the user declines a prompt.
func Rejected() error {
	return &ProviderError{Code: constants.ErrCodeUserRejected, Message: "User rejected the request."}
}

// UnknownChain is the error a wallet returns for a chain it has not added.
func UnknownChain() error {
	return &ProviderError{Code: constants.ErrCodeUnknownChain, Message: "Unrecognized chain ID."}
}

// SentTransaction records an eth_sendTransaction request.
type SentTransaction struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// FakeWallet is a scriptable chain.Wallet.
type FakeWallet struct {
	mu sync.Mutex

	accounts   []common.Address
	authorised bool
	chainID    uint64
	knownChain map[uint64]bool

	RequestAccountsErr error
	ChainIDErr         error
	AddChainErr        error
	SendErr            error
	TxHash             common.Hash

	switchErrs []error
	calls      []string
	addParams  []map[string]interface{}
	sent       []SentTransaction

	feed event.Feed
	fail chan error
}

// NewFakeWallet creates a wallet holding accounts on chainID. Accounts are
// not authorised until RequestAccounts succeeds or Authorise is called.
func NewFakeWallet(chainID uint64, accounts ...common.Address) *FakeWallet {
	return &FakeWallet{
		accounts:   accounts,
		chainID:    chainID,
		knownChain: map[uint64]bool{chainID: true},
		fail:       make(chan error, 1),
	}
}

// Authorise marks the accounts as already approved, as after a page reload.
func (w *FakeWallet) Authorise() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.authorised = true
}

// SetChain moves the wallet to another chain without emitting an event.
func (w *FakeWallet) SetChain(chainID uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = chainID
	w.knownChain[chainID] = true
}

// FailSwitch queues errors returned by successive wallet_switchEthereumChain calls.
func (w *FakeWallet) FailSwitch(errs ...error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.switchErrs = append(w.switchErrs, errs...)
}

// Calls returns the provider methods requested so far.
func (w *FakeWallet) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

// AddChainParams returns the parameters of each wallet_addEthereumChain call.
func (w *FakeWallet) AddChainParams() []map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]map[string]interface{}(nil), w.addParams...)
}

// Sent returns the transactions submitted through the wallet.
func (w *FakeWallet) Sent() []SentTransaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]SentTransaction(nil), w.sent...)
}

// Emit pushes an event to subscribers.
func (w *FakeWallet) Emit(ev chain.Event) {
	w.feed.Send(ev)
}

// SwitchAccount changes the active account and emits accountsChanged.
func (w *FakeWallet) SwitchAccount(account common.Address) {
	w.mu.Lock()
	w.accounts = []common.Address{account}
	w.mu.Unlock()
	w.Emit(chain.Event{Type: chain.EventAccountsChanged, Accounts: []common.Address{account}})
}

// ChangeChain moves the wallet and emits chainChanged.
func (w *FakeWallet) ChangeChain(chainID uint64) {
	w.SetChain(chainID)
	w.Emit(chain.Event{Type: chain.EventChainChanged, ChainID: chainID})
}

// FailSubscription terminates the event subscription with err.
func (w *FakeWallet) FailSubscription(err error) {
	w.fail <- err
}

func (w *FakeWallet) record(method string) {
	w.calls = append(w.calls, method)
}

func (w *FakeWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record(constants.MethodRequestAccounts)
	if w.RequestAccountsErr != nil {
		return nil, w.RequestAccountsErr
	}
	w.authorised = true
	return append([]common.Address(nil), w.accounts...), nil
}

func (w *FakeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record(constants.MethodAccounts)
	if !w.authorised {
		return nil, nil
	}
	return append([]common.Address(nil), w.accounts...), nil
}

func (w *FakeWallet) ChainID(ctx context.Context) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record(constants.MethodChainID)
	if w.ChainIDErr != nil {
		return 0, w.ChainIDErr
	}
	return w.chainID, nil
}

func (w *FakeWallet) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record(method)

	switch method {
	case constants.MethodSwitchChain:
		if len(w.switchErrs) > 0 {
			err := w.switchErrs[0]
			w.switchErrs = w.switchErrs[1:]
			return err
		}
		target, err := chainIDParam(params)
		if err != nil {
			return err
		}
		if !w.knownChain[target] {
			return UnknownChain()
		}
		w.chainID = target
		return nil

	case constants.MethodAddChain:
		var p map[string]interface{}
		if err := remarshal(params[0], &p); err != nil {
			return err
		}
		w.addParams = append(w.addParams, p)
		if w.AddChainErr != nil {
			return w.AddChainErr
		}
		target, err := chainIDParam(params)
		if err != nil {
			return err
		}
		w.knownChain[target] = true
		return nil

	case constants.MethodSendTransaction:
		var tx SentTransaction
		if err := remarshal(params[0], &tx); err != nil {
			return err
		}
		if w.SendErr != nil {
			return w.SendErr
		}
		w.sent = append(w.sent, tx)
		if hash, ok := result.(*common.Hash); ok {
			*hash = w.TxHash
		}
		return nil
	}
	return fmt.Errorf("unsupported method %s", method)
}

func (w *FakeWallet) SubscribeEvents(ctx context.Context, ch chan<- chain.Event) (event.Subscription, error) {
	inner := w.feed.Subscribe(ch)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case err := <-w.fail:
			return err
		}
	}), nil
}

func chainIDParam(params []interface{}) (uint64, error) {
	if len(params) == 0 {
		return 0, errors.New("missing chain params")
	}
	var p struct {
		ChainID string `json:"chainId"`
	}
	if err := remarshal(params[0], &p); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(p.ChainID)
}

func remarshal(in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
