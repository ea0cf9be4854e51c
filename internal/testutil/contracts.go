package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
)

// CallResult is the canned answer for one contract method.
type CallResult struct {
	Values []interface{}
	Err    error
}

// Returns answers a call with ABI-encoded values.
func Returns(values ...interface{}) CallResult {
	return CallResult{Values: values}
}

// Fails answers a call with err.
func Fails(err error) CallResult {
	return CallResult{Err: err}
}

// Responder answers eth_call requests against the embedded ABIs by method
// name. It is safe to use from gomock DoAndReturn.
type Responder struct {
	abis *contracts.ABIs

	mu      sync.Mutex
	results map[string]CallResult
	calls   map[string]int
}

func NewResponder(abis *contracts.ABIs) *Responder {
	return &Responder{
		abis:    abis,
		results: make(map[string]CallResult),
		calls:   make(map[string]int),
	}
}

// On sets the result for method.
func (r *Responder) On(method string, result CallResult) *Responder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[method] = result
	return r
}

// Count returns how many times method was called.
func (r *Responder) Count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// CallContract implements ethereum.ContractCaller.
func (r *Responder) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("call data too short")
	}
	method, err := r.method(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.calls[method.Name]++
	result, ok := r.results[method.Name]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no result for %s", method.Name)
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return method.Outputs.Pack(result.Values...)
}

func (r *Responder) method(selector []byte) (*abi.Method, error) {
	for _, parsed := range []abi.ABI{r.abis.Token, r.abis.Payment, r.abis.FeeRelayer} {
		if m, err := parsed.MethodById(selector); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", selector)
}
