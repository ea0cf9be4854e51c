// Package session owns the per-user wallet components and the wiring
// between them.
package session

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/balance"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/notify"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
	"github.com/nepalipay/nepalipay-web3/internal/transaction"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChainClient is the chain RPC surface the session needs.
// *ethclient.Client satisfies it.
type ChainClient interface {
	ethereum.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	transaction.ChainReader
}

// Backend is the REST API surface the session needs.
type Backend interface {
	GetProfile(ctx context.Context) (*backend.User, error)
	GetWallet(ctx context.Context) (*backend.Wallet, error)
	CreateWallet(ctx context.Context, userID int64, address string) (*backend.Wallet, error)
	ListTransactions(ctx context.Context) ([]backend.TransactionRecord, error)
	RecordTransaction(ctx context.Context, record backend.TransactionRecord) error
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*backend.PaymentIntent, error)
}

// Config holds the per-session settings.
type Config struct {
	Network     chain.Network
	Addresses   contracts.Addresses
	Fees        map[balance.Channel]decimal.Decimal
	Transaction transaction.Config
	Realtime    realtime.Config
	// PollInterval enables periodic balance refresh when positive.
	PollInterval time.Duration
}

// Deps are the external capabilities. Wallet may be nil when none is
// available; Backend may be nil to run without the REST API.
type Deps struct {
	Wallet   chain.Wallet
	Chain    ChainClient
	Backend  Backend
	Notifier notify.Notifier
}

// Session is one user's wallet store.
type Session struct {
	Manager       *chain.Manager
	Registry      *contracts.Registry
	Balances      *balance.Synchronizer
	Transactions  *transaction.Submitter
	Realtime      *realtime.Bridge
	Notifications *notify.Feed

	wallet   chain.Wallet
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger

	mu   sync.Mutex
	user *backend.User

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a session and wires its components together.
func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Chain == nil {
		return nil, errors.New("session requires a chain client")
	}
	abis, err := contracts.LoadABIs()
	if err != nil {
		return nil, err
	}

	feed := notify.NewFeed(32)
	notifiers := notify.Multi{feed, notify.NewLogNotifier(logger.Named("notify"))}
	if deps.Notifier != nil {
		notifiers = append(notifiers, deps.Notifier)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		Notifications: feed,
		wallet:        deps.Wallet,
		backend:       deps.Backend,
		notifier:      notifiers,
		logger:        logger.Named("session"),
		ctx:           ctx,
		cancel:        cancel,
	}

	s.Registry = contracts.NewRegistry(deps.Chain, cfg.Addresses, abis)
	s.Balances = balance.NewSynchronizer(deps.Chain, s.Registry, cfg.Fees)
	s.Transactions = transaction.NewSubmitter(s.Registry, deps.Chain, s.Balances, notifiers, cfg.Transaction)
	s.Realtime = realtime.NewBridge(cfg.Realtime, notifiers)
	s.Manager = chain.NewManager(deps.Wallet, cfg.Network, notifiers)

	if deps.Backend != nil {
		s.Transactions.SetLedger(ledger{s})
	}
	s.Manager.OnStateChange(s.onConnectionChange)
	s.Realtime.On(constants.MessageTransactionCompleted, s.onTransactionPush)
	s.Realtime.On(constants.MessageTransactionFailed, s.onTransactionPush)

	if cfg.PollInterval > 0 {
		s.goBackground(func(ctx context.Context) { s.Balances.Run(ctx, cfg.PollInterval) })
	}
	return s, nil
}

// User returns the signed-in user, or nil.
func (s *Session) User() *backend.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Login loads the session user, opens the push channel and silently
// restores a previously authorised wallet.
func (s *Session) Login(ctx context.Context) (*backend.User, error) {
	if s.backend == nil {
		return nil, errors.New("no backend configured")
	}
	user, err := s.backend.GetProfile(ctx)
	if err != nil {
		if errors.Is(err, walleterr.ErrUnauthenticated) {
			s.expire()
		}
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("User signed in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	s.Realtime.Start(user.ID)

	if err := s.Manager.Restore(ctx); err != nil {
		s.logger.Debug("Wallet restore failed", zap.Error(err))
	}
	return user, nil
}

// Logout ends the user session: the push channel closes for good and the
// wallet is disconnected locally.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	s.Realtime.Stop()
	s.Manager.Disconnect()
}

// History returns the ledger of the signed-in user. Signed out, there is
// no ledger and History returns nil.
func (s *Session) History(ctx context.Context) ([]backend.TransactionRecord, error) {
	if s.backend == nil || s.User() == nil {
		return nil, nil
	}
	records, err := s.backend.ListTransactions(ctx)
	if err != nil {
		return nil, s.checkAuth(err)
	}
	return records, nil
}

// CreatePaymentIntent starts a card purchase of amount tokens for the
// signed-in user.
func (s *Session) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*backend.PaymentIntent, error) {
	if s.backend == nil || s.User() == nil {
		return nil, walleterr.ErrUnauthenticated
	}
	intent, err := s.backend.CreatePaymentIntent(ctx, amount)
	if err != nil {
		return nil, s.checkAuth(err)
	}
	return intent, nil
}

// Close logs out and releases every resource.
func (s *Session) Close() {
	s.Logout()
	s.cancel()
	s.Manager.Close()
	s.wg.Wait()
}

func (s *Session) onConnectionChange(prev, next chain.ConnectionState) {
	if next.Status != chain.StatusConnected {
		if prev.Status == chain.StatusConnected {
			s.Registry.Clear()
			s.Balances.Reset()
		}
		return
	}

	if _, err := s.Registry.Bind(next, chain.NewWalletSigner(s.wallet, next.Address())); err != nil {
		s.logger.Error("Failed to bind contracts", zap.Error(err))
		return
	}

	s.goBackground(func(ctx context.Context) {
		if _, err := s.Balances.Refresh(ctx); err != nil {
			s.logger.Debug("Initial balance refresh failed", zap.Error(err))
		}
	})
	s.goBackground(func(ctx context.Context) { s.syncWalletRecord(ctx, next.Account) })
}

func (s *Session) onTransactionPush(msg realtime.Message) {
	s.goBackground(func(ctx context.Context) {
		if _, err := s.Balances.Refresh(ctx); err != nil {
			s.logger.Debug("Balance refresh after push failed", zap.String("type", msg.Type), zap.Error(err))
		}
	})
}

// syncWalletRecord makes sure the signed-in user has a wallet record for
// the connected account.
func (s *Session) syncWalletRecord(ctx context.Context, account string) {
	user := s.User()
	if s.backend == nil || user == nil {
		return
	}

	wallet, err := s.backend.GetWallet(ctx)
	switch {
	case err == nil:
		if wallet.Address != "" && !strings.EqualFold(wallet.Address, account) {
			s.logger.Info("Connected account differs from wallet record",
				zap.String("record", wallet.Address),
				zap.String("account", account))
		}
		return
	case backend.IsNotFound(err):
	case errors.Is(err, walleterr.ErrUnauthenticated):
		s.expire()
		return
	default:
		s.logger.Warn("Failed to load wallet record", zap.Error(err))
		return
	}

	if _, err := s.backend.CreateWallet(ctx, user.ID, account); err != nil {
		s.logger.Warn("Failed to create wallet record", zap.Error(err))
		return
	}
	s.logger.Info("Created wallet record", zap.Int64("user_id", user.ID), zap.String("account", account))
}

// checkAuth expires the session when err is a rejected cookie.
func (s *Session) checkAuth(err error) error {
	if errors.Is(err, walleterr.ErrUnauthenticated) {
		s.expire()
	}
	return err
}

// expire reacts to a rejected session cookie the way a browser would
// redirect to sign-in.
func (s *Session) expire() {
	s.notifier.Notify(notify.Failure(constants.TitleSessionExpired, walleterr.ErrUnauthenticated.Message))
	s.Logout()
}

func (s *Session) goBackground(fn func(ctx context.Context)) {
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// ledger forwards confirmed transactions to the backend and expires the
// session on a 401.
type ledger struct{ s *Session }

func (l ledger) RecordTransaction(ctx context.Context, record backend.TransactionRecord) error {
	if l.s.User() == nil {
		return nil
	}
	if err := l.s.backend.RecordTransaction(ctx, record); err != nil {
		return l.s.checkAuth(err)
	}
	return nil
}
