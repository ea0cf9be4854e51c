// Package chain owns the wallet connection: which account is active, which
// chain the wallet is on, and the transitions between those states.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/notify"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"go.uber.org/zap"
)

// Status is the connection lifecycle state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusWrongNetwork
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusWrongNetwork:
		return "wrong_network"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ConnectionState is a snapshot of the wallet connection. Account is the
// lowercase hex address and is empty unless Status is Connected or
// WrongNetwork.
type ConnectionState struct {
	Status  Status `json:"status"`
	Account string `json:"account,omitempty"`
	ChainID uint64 `json:"chainId,omitempty"`
}

// Address returns Account as a common.Address.
func (s ConnectionState) Address() common.Address {
	return common.HexToAddress(s.Account)
}

// Observer is called synchronously after every state transition.
type Observer func(prev, next ConnectionState)

type watcher struct {
	sub    event.Subscription
	cancel context.CancelFunc
}

// Manager drives the connection state machine for a single wallet.
type Manager struct {
	wallet   Wallet
	network  Network
	notifier notify.Notifier
	logger   *zap.Logger

	// opMu serialises Connect, Disconnect, Restore and wallet events.
	opMu  sync.Mutex
	watch *watcher

	mu        sync.RWMutex
	state     ConnectionState
	observers []Observer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a manager in the Disconnected state. wallet may be nil
// when no wallet is available.
func NewManager(wallet Wallet, network Network, notifier notify.Notifier) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		wallet:   wallet,
		network:  network,
		notifier: notifier,
		logger:   logger.Named("chain"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (m *Manager) Network() Network {
	return m.network
}

// State returns the current connection snapshot.
func (m *Manager) State() ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OnStateChange registers an observer.
func (m *Manager) OnStateChange(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Connect requests account access, checks the chain and, when the wallet is
// on another chain, asks it to switch (adding the chain first if needed).
// Staying on the wrong network is not an error: the state records it.
func (m *Manager) Connect(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.wallet == nil {
		n := notify.Failure(constants.TitleWalletNotFound, walleterr.ErrWalletNotFound.Message)
		n.Action = &notify.Action{Label: "Install", URL: constants.WalletInstallURL}
		m.notifier.Notify(n)
		return walleterr.ErrWalletNotFound
	}

	m.setState(ConnectionState{Status: StatusConnecting})

	accounts, err := m.wallet.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = errors.New("wallet returned no accounts")
	}
	if err != nil {
		return m.fail(err, true)
	}

	return m.establish(ctx, accounts[0], true)
}

// Disconnect clears the local connection. The wallet itself keeps its
// authorisation; there is nothing to revoke remotely.
func (m *Manager) Disconnect() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.disconnect()
}

// Restore re-establishes a connection the wallet has already authorised,
// without prompting. It is a no-op when no account is authorised.
func (m *Manager) Restore(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.restore(ctx)
}

// Signer returns a wallet-backed signer for the connected account.
func (m *Manager) Signer() (*WalletSigner, error) {
	state := m.State()
	if state.Status != StatusConnected || m.wallet == nil {
		return nil, walleterr.ErrNotConnected
	}
	return NewWalletSigner(m.wallet, state.Address()), nil
}

// Close stops listening for wallet events.
func (m *Manager) Close() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.stopWatch()
	m.cancel()
}

func (m *Manager) restore(ctx context.Context) error {
	if m.wallet == nil {
		return nil
	}
	accounts, err := m.wallet.Accounts(ctx)
	if err != nil {
		m.logger.Warn("Failed to read authorised accounts", zap.Error(err))
		return walleterr.Translate(err, walleterr.ConnectionFailed)
	}
	if len(accounts) == 0 {
		return nil
	}
	return m.establish(ctx, accounts[0], false)
}

// establish reads the chain for an authorised account and settles on
// Connected or WrongNetwork. interactive controls whether the wallet is
// asked to switch networks and whether success is announced.
func (m *Manager) establish(ctx context.Context, account common.Address, interactive bool) error {
	chainID, err := m.wallet.ChainID(ctx)
	if err != nil {
		return m.fail(err, interactive)
	}

	state := ConnectionState{
		Status:  StatusConnected,
		Account: strings.ToLower(account.Hex()),
		ChainID: chainID,
	}

	if chainID != m.network.ChainID {
		state.Status = StatusWrongNetwork
		m.startWatch()
		m.setState(state)

		if !interactive {
			m.notifier.Notify(notify.Failure(constants.TitleWrongNetwork,
				fmt.Sprintf("Please switch to %s in your wallet.", m.network.Name)))
			return nil
		}

		if err := m.switchNetwork(ctx); err != nil {
			m.logger.Warn("Failed to switch network",
				zap.Uint64("chain_id", chainID),
				zap.Uint64("expected_chain_id", m.network.ChainID),
				zap.Error(err))
			m.notifier.Notify(notify.Failure(constants.TitleNetworkError,
				fmt.Sprintf("Please switch to %s in your wallet.", m.network.Name)))
			return nil
		}

		chainID, err = m.wallet.ChainID(ctx)
		if err != nil || chainID != m.network.ChainID {
			m.logger.Warn("Wallet still on wrong network after switch",
				zap.Uint64("chain_id", chainID), zap.Error(err))
			m.notifier.Notify(notify.Failure(constants.TitleNetworkError,
				fmt.Sprintf("Please switch to %s in your wallet.", m.network.Name)))
			return nil
		}
		state.Status = StatusConnected
		state.ChainID = chainID
	}

	m.startWatch()
	m.setState(state)

	m.logger.Info("Wallet connected",
		zap.String("account", state.Account),
		zap.Uint64("chain_id", state.ChainID))
	if interactive {
		m.notifier.Notify(notify.Success(constants.TitleWalletConnected,
			"Connected to "+ShortAddress(state.Account)))
	}
	return nil
}

// switchNetwork asks the wallet to move to the configured chain. Wallets
// that do not know the chain, or that refuse the switch, are offered the
// chain definition and asked again.
func (m *Manager) switchNetwork(ctx context.Context) error {
	err := m.wallet.Request(ctx, nil, constants.MethodSwitchChain, m.network.switchParams())
	if err == nil {
		return nil
	}

	code := walleterr.ProviderCode(err)
	if code != constants.ErrCodeUnknownChain && code != constants.ErrCodeChainNotAdded && !walleterr.IsUserRejection(err) {
		return fmt.Errorf("failed to switch chain: %w", err)
	}

	if err := m.wallet.Request(ctx, nil, constants.MethodAddChain, m.network.addParams()); err != nil {
		return fmt.Errorf("failed to add chain: %w", err)
	}
	if err := m.wallet.Request(ctx, nil, constants.MethodSwitchChain, m.network.switchParams()); err != nil {
		return fmt.Errorf("failed to switch chain after adding it: %w", err)
	}
	return nil
}

func (m *Manager) fail(err error, interactive bool) error {
	werr := walleterr.Translate(err, walleterr.ConnectionFailed)
	m.logger.Warn("Wallet connection failed", zap.String("code", string(werr.Code)), zap.Error(err))

	m.stopWatch()
	m.setState(ConnectionState{Status: StatusDisconnected})
	if interactive {
		m.notifier.Notify(notify.Failure(constants.TitleConnectionError, werr.Message))
	}
	return werr
}

func (m *Manager) disconnect() {
	m.stopWatch()
	if m.State().Status == StatusDisconnected {
		return
	}
	m.setState(ConnectionState{Status: StatusDisconnected})
	m.logger.Info("Wallet disconnected")
	m.notifier.Notify(notify.Info(constants.TitleWalletDisconnected, "Your wallet has been disconnected."))
}

func (m *Manager) setState(next ConnectionState) {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	m.logger.Debug("Connection state changed",
		zap.Stringer("from", prev.Status),
		zap.Stringer("to", next.Status))
	for _, fn := range observers {
		fn(prev, next)
	}
}

func (m *Manager) startWatch() {
	if m.watch != nil {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	events := make(chan Event, 16)
	sub, err := m.wallet.SubscribeEvents(ctx, events)
	if err != nil {
		cancel()
		m.logger.Warn("Failed to subscribe to wallet events", zap.Error(err))
		return
	}

	w := &watcher{sub: sub, cancel: cancel}
	m.watch = w
	go m.watchLoop(ctx, w, events)
}

func (m *Manager) stopWatch() {
	if m.watch == nil {
		return
	}
	w := m.watch
	m.watch = nil
	w.cancel()
	// Unsubscribe waits for the producer; never block an operation on it.
	go w.sub.Unsubscribe()
}

func (m *Manager) watchLoop(ctx context.Context, w *watcher, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.sub.Err():
			if !ok {
				return
			}
			m.handleSubscriptionError(w, err)
			return
		case ev := <-events:
			m.handleEvent(w, ev)
		}
	}
}

func (m *Manager) handleEvent(w *watcher, ev Event) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.watch != w {
		return
	}

	m.logger.Debug("Wallet event", zap.String("type", string(ev.Type)))

	switch ev.Type {
	case EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			m.disconnect()
			return
		}
		if strings.EqualFold(ev.Accounts[0].Hex(), m.State().Account) {
			return
		}
		m.setState(ConnectionState{Status: StatusConnecting})
		_ = m.establish(m.ctx, ev.Accounts[0], true)

	case EventChainChanged:
		// A chain change invalidates everything derived from the old chain,
		// so tear down and rebuild as if the page had been reloaded.
		m.stopWatch()
		m.setState(ConnectionState{Status: StatusDisconnected})
		if err := m.restore(m.ctx); err != nil {
			m.logger.Warn("Failed to restore after chain change", zap.Error(err))
		}

	case EventDisconnect:
		m.disconnect()
	}
}

func (m *Manager) handleSubscriptionError(w *watcher, err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.watch != w {
		return
	}
	m.watch = nil
	w.cancel()

	m.logger.Error("Wallet event subscription failed", zap.Error(err))
	m.setState(ConnectionState{Status: StatusError})
	m.notifier.Notify(notify.Failure(constants.TitleConnectionError, "Lost connection to your wallet."))
}

// ShortAddress abbreviates a hex address as 0x1234...abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
