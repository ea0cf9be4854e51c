// Package balance keeps the connected account's native and token balances
// and derives fiat quotes from the payment contract's exchange rate.
package balance

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/units"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BalanceReader reads native balances. *ethclient.Client satisfies it.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// BindingSource supplies the bindings for the live connection.
type BindingSource interface {
	Current() (*contracts.Bindings, error)
}

const (
	RateSourceContract = "contract"
	RateSourceFallback = "fallback"
)

// Rate is the fiat value of one whole token. Fallback marks the fixed 1:1
// rate used when the contract cannot supply one.
type Rate struct {
	Value    decimal.Decimal `json:"value"`
	Fallback bool            `json:"fallback"`
	Source   string          `json:"source"`
}

// FallbackRate is the fixed 1:1 rate.
func FallbackRate() Rate {
	return Rate{Value: decimal.NewFromInt(1), Fallback: true, Source: RateSourceFallback}
}

// Snapshot is the last successfully fetched balance. The zero value means
// nothing has been fetched yet.
type Snapshot struct {
	Account        string          `json:"account,omitempty"`
	NativeBalance  decimal.Decimal `json:"nativeBalance"`
	TokenBalance   decimal.Decimal `json:"tokenBalance"`
	FiatEquivalent decimal.Decimal `json:"fiatEquivalent"`
	Rate           Rate            `json:"rate"`
	AsOf           time.Time       `json:"asOf"`
}

// Synchronizer fetches balances on demand. Concurrent refreshes share one
// in-flight fetch.
type Synchronizer struct {
	reader   BalanceReader
	bindings BindingSource
	fees     map[Channel]decimal.Decimal
	logger   *zap.Logger
	now      func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewSynchronizer creates a synchronizer. A nil fees map uses DefaultFees.
func NewSynchronizer(reader BalanceReader, bindings BindingSource, fees map[Channel]decimal.Decimal) *Synchronizer {
	if fees == nil {
		fees = DefaultFees()
	}
	return &Synchronizer{
		reader:   reader,
		bindings: bindings,
		fees:     fees,
		logger:   logger.Named("balance"),
		now:      time.Now,
	}
}

// Snapshot returns the last successful fetch.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Reset discards the snapshot, used when the account goes away.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Refresh fetches balances for the connected account. On failure the
// previous snapshot is kept and returned with a NetworkFetchFailed error.
func (s *Synchronizer) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, shared := s.group.Do("refresh", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if shared {
		s.logger.Debug("Joined in-flight balance refresh")
	}
	return v.(Snapshot), err
}

func (s *Synchronizer) refresh(ctx context.Context) (Snapshot, error) {
	b, err := s.bindings.Current()
	if err != nil {
		return s.Snapshot(), err
	}

	native, err := s.reader.BalanceAt(ctx, b.Account, nil)
	if err != nil {
		return s.fetchFailed("native balance", b.Account, err)
	}
	token, err := b.Token.BalanceOf(ctx, b.Account)
	if err != nil {
		return s.fetchFailed("token balance", b.Account, err)
	}
	rate := s.rateFor(ctx, b)

	tokenBalance := units.FromBaseUnits(token, constants.TokenDecimals)
	next := Snapshot{
		Account:        b.Account.Hex(),
		NativeBalance:  units.FromBaseUnits(native, constants.TokenDecimals),
		TokenBalance:   tokenBalance,
		FiatEquivalent: tokenBalance.Mul(rate.Value),
		Rate:           rate,
		AsOf:           s.now(),
	}

	// The connection may have moved on while the fetch was in flight.
	if current, err := s.bindings.Current(); err != nil || current != b {
		s.logger.Debug("Discarding balance for stale bindings", zap.String("account", b.Account.Hex()))
		return s.Snapshot(), nil
	}

	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()

	s.logger.Debug("Balances refreshed",
		zap.String("account", next.Account),
		zap.String("token_balance", next.TokenBalance.String()),
		zap.Bool("rate_fallback", rate.Fallback))
	return next, nil
}

func (s *Synchronizer) fetchFailed(what string, account common.Address, err error) (Snapshot, error) {
	s.logger.Warn("Failed to fetch "+what,
		zap.String("account", account.Hex()),
		zap.Error(err))
	return s.Snapshot(), walleterr.Wrap(walleterr.ErrNetworkFetchFailed, err)
}

// ExchangeRate reads the token/fiat rate, falling back to 1:1 when the
// payment contract has no oracle, the call fails or it returns zero.
func (s *Synchronizer) ExchangeRate(ctx context.Context) Rate {
	b, err := s.bindings.Current()
	if err != nil {
		return FallbackRate()
	}
	return s.rateFor(ctx, b)
}

func (s *Synchronizer) rateFor(ctx context.Context, b *contracts.Bindings) Rate {
	if !b.Capabilities.PriceOracle {
		return FallbackRate()
	}
	raw, err := b.Payment.ExchangeRate(ctx)
	if err != nil {
		s.logger.Warn("Failed to read exchange rate, using fallback", zap.Error(err))
		return FallbackRate()
	}
	if raw.Sign() <= 0 {
		s.logger.Debug("Exchange rate is zero, using fallback")
		return FallbackRate()
	}
	return Rate{
		Value:  units.FromBaseUnits(raw, constants.TokenDecimals),
		Source: RateSourceContract,
	}
}

// Run refreshes every interval until ctx is done. Failures are logged by
// Refresh and do not stop the loop.
func (s *Synchronizer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, walleterr.ErrNotConnected) {
				s.logger.Debug("Periodic balance refresh failed", zap.Error(err))
			}
		}
	}
}
