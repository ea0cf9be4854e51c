// Package contracts binds the token, payment and fee relayer contracts to
// the connected account.
package contracts

import (
	"context"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"go.uber.org/zap"
)

// Addresses are the deployed contract addresses.
type Addresses struct {
	Token      common.Address
	Payment    common.Address
	FeeRelayer common.Address
}

// DefaultAddresses returns the production deployment.
func DefaultAddresses() Addresses {
	return Addresses{
		Token:      common.HexToAddress(constants.TokenContractAddress),
		Payment:    common.HexToAddress(constants.PaymentContractAddress),
		FeeRelayer: common.HexToAddress(constants.FeeRelayerContractAddress),
	}
}

// Capabilities records optional contract features, decided at bind time.
type Capabilities struct {
	PriceOracle bool `json:"priceOracle"`
}

// Bindings is the set of contracts bound to one account. A Bindings value
// is immutable; reconnecting produces a new one.
type Bindings struct {
	Account      common.Address
	Token        *Token
	Payment      *Payment
	FeeRelayer   *FeeRelayer
	Capabilities Capabilities

	caller ethereum.ContractCaller
}

// RevertReason replays a mined transaction as a call at its block to
// recover the revert string. It returns "" when the node gives no reason.
func (b *Bindings) RevertReason(ctx context.Context, sent *SentTx, block *big.Int) string {
	msg := ethereum.CallMsg{From: sent.From, To: &sent.To, Data: sent.Data}
	_, err := b.caller.CallContract(ctx, msg, block)
	if err == nil {
		return ""
	}
	reason, _ := walleterr.RevertReason(err)
	return reason
}

// Registry holds the bindings for the current connection.
type Registry struct {
	addresses Addresses
	abis      *ABIs
	caller    ethereum.ContractCaller
	logger    *zap.Logger

	mu      sync.RWMutex
	current *Bindings
}

// NewRegistry creates an empty registry. caller serves read-only calls.
func NewRegistry(caller ethereum.ContractCaller, addresses Addresses, abis *ABIs) *Registry {
	return &Registry{
		addresses: addresses,
		abis:      abis,
		caller:    caller,
		logger:    logger.Named("contracts"),
	}
}

// Bind builds bindings for a connected state and makes them current. Any
// other state clears the registry and returns NotConnected. Binding makes
// no network calls.
func (r *Registry) Bind(state chain.ConnectionState, signer Signer) (*Bindings, error) {
	if state.Status != chain.StatusConnected || signer == nil {
		r.Clear()
		return nil, walleterr.ErrNotConnected
	}

	newBound := func(address common.Address, parsed abi.ABI) boundContract {
		return boundContract{address: address, abi: parsed, caller: r.caller, signer: signer}
	}

	_, hasOracle := r.abis.Payment.Methods["getExchangeRate"]

	b := &Bindings{
		Account:      signer.Address(),
		Token:        &Token{newBound(r.addresses.Token, r.abis.Token)},
		Payment:      &Payment{newBound(r.addresses.Payment, r.abis.Payment)},
		FeeRelayer:   &FeeRelayer{newBound(r.addresses.FeeRelayer, r.abis.FeeRelayer)},
		Capabilities: Capabilities{PriceOracle: hasOracle},
		caller:       r.caller,
	}

	r.mu.Lock()
	r.current = b
	r.mu.Unlock()

	r.logger.Debug("Contracts bound",
		zap.String("account", b.Account.Hex()),
		zap.Bool("price_oracle", hasOracle))
	return b, nil
}

// Clear drops the current bindings.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}

// Current returns the bindings for the live connection, or NotConnected.
func (r *Registry) Current() (*Bindings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, walleterr.ErrNotConnected
	}
	return r.current, nil
}

// Addresses returns the deployed contract addresses the registry binds to.
func (r *Registry) Addresses() Addresses {
	return r.addresses
}
