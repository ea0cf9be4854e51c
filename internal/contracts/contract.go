package contracts

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Signer approves and broadcasts transactions for one account.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// SentTx is a transaction the wallet has accepted and broadcast.
type SentTx struct {
	Hash   common.Hash
	From   common.Address
	To     common.Address
	Method string
	Data   []byte
}

// boundContract pairs an ABI with an address, a read backend and a signer.
type boundContract struct {
	address common.Address
	abi     abi.ABI
	caller  ethereum.ContractCaller
	signer  Signer
}

func (c *boundContract) Address() common.Address {
	return c.address
}

// Pack encodes a call to method.
func (c *boundContract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	return data, nil
}

func (c *boundContract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{From: c.signer.Address(), To: &c.address, Data: data}
	raw, err := c.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return out, nil
}

func (c *boundContract) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("failed to decode %s: empty result", method)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to decode %s: unexpected type %T", method, out[0])
	}
	return value, nil
}

func (c *boundContract) transact(ctx context.Context, method string, args ...interface{}) (*SentTx, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	hash, err := c.signer.SendTransaction(ctx, c.address, data)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}

	return &SentTx{
		Hash:   hash,
		From:   c.signer.Address(),
		To:     c.address,
		Method: method,
		Data:   data,
	}, nil
}

// Token is the ERC-20 token contract.
type Token struct {
	boundContract
}

func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callUint(ctx, "balanceOf", owner)
}

func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*SentTx, error) {
	return t.transact(ctx, "transfer", to, amount)
}

func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*SentTx, error) {
	return t.transact(ctx, "approve", spender, amount)
}

// Payment is the payment, lending and rewards contract.
type Payment struct {
	boundContract
}

// ExchangeRate returns the fiat value of one whole token, scaled by 1e18.
func (p *Payment) ExchangeRate(ctx context.Context) (*big.Int, error) {
	return p.callUint(ctx, "getExchangeRate")
}

// TransactionFee returns the fee, in token base units, for moving amount.
func (p *Payment) TransactionFee(ctx context.Context, amount *big.Int) (*big.Int, error) {
	return p.callUint(ctx, "getTransactionFee", amount)
}

func (p *Payment) CreateLoan(ctx context.Context, amount *big.Int) (*SentTx, error) {
	return p.transact(ctx, "createLoan", amount)
}

func (p *Payment) RepayLoan(ctx context.Context, loanID, amount *big.Int) (*SentTx, error) {
	return p.transact(ctx, "repayLoan", loanID, amount)
}

func (p *Payment) ClaimReward(ctx context.Context, amount *big.Int) (*SentTx, error) {
	return p.transact(ctx, "claimReward", amount)
}

// FeeRelayer quotes and relays fee-sponsored calls.
type FeeRelayer struct {
	boundContract
}

// EstimateFee returns the relay fee, in token base units, for calling target with data.
func (f *FeeRelayer) EstimateFee(ctx context.Context, target common.Address, data []byte) (*big.Int, error) {
	return f.callUint(ctx, "estimateFee", target, data)
}
