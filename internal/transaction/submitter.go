// Package transaction drives user actions from a human-entered amount to an
// on-chain outcome, one in-flight transaction per kind.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/nepalipay/nepalipay-web3/internal/balance"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/notify"
	"github.com/nepalipay/nepalipay-web3/internal/units"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultConfirmTimeout = 3 * time.Minute
	defaultPollInterval   = 3 * time.Second
	recentLimit           = 20
)

// ErrUnknownKind is returned for a request whose kind is not supported.
var ErrUnknownKind = errors.New("unknown transaction kind")

var errNotMined = errors.New("transaction not yet mined")

// ChainReader polls for receipts and prices gas. *ethclient.Client
// satisfies it.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// BindingSource supplies the bindings for the live connection.
type BindingSource interface {
	Current() (*contracts.Bindings, error)
}

// Refresher refreshes balances after a confirmed transaction.
type Refresher interface {
	Refresh(ctx context.Context) (balance.Snapshot, error)
}

// Ledger records confirmed transactions off-chain.
type Ledger interface {
	RecordTransaction(ctx context.Context, record backend.TransactionRecord) error
}

// Observer is called after every status change.
type Observer func(tx PendingTransaction)

// Config tunes confirmation polling.
type Config struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// Submitter validates, submits and confirms transactions.
type Submitter struct {
	bindings BindingSource
	node     ChainReader
	balances Refresher
	notifier notify.Notifier
	ledger   Ledger
	cfg      Config
	logger   *zap.Logger

	mu        sync.Mutex
	active    map[Kind]*PendingTransaction
	recent    []PendingTransaction
	observers []Observer
}

// NewSubmitter creates a submitter. Zero config values use the defaults.
func NewSubmitter(bindings BindingSource, node ChainReader, balances Refresher, notifier notify.Notifier, cfg Config) *Submitter {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Submitter{
		bindings: bindings,
		node:     node,
		balances: balances,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Named("transaction"),
		active:   make(map[Kind]*PendingTransaction),
	}
}

// SetLedger enables best-effort recording of confirmed transactions.
func (s *Submitter) SetLedger(ledger Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger
}

// OnStatus registers an observer for status changes.
func (s *Submitter) OnStatus(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Submit runs a request to completion. The returned transaction is in a
// terminal state unless a precondition failed, in which case it is zero.
func (s *Submitter) Submit(ctx context.Context, req Request) (PendingTransaction, error) {
	j, err := s.prepare(req)
	if err != nil {
		return PendingTransaction{}, err
	}
	return s.run(ctx, j)
}

// Start validates and reserves the request synchronously, then finishes it
// in the background. The returned transaction is in the Building state.
func (s *Submitter) Start(ctx context.Context, req Request) (PendingTransaction, error) {
	j, err := s.prepare(req)
	if err != nil {
		return PendingTransaction{}, err
	}
	started := s.snapshot(j.tx)
	go func() {
		_, _ = s.run(context.WithoutCancel(ctx), j)
	}()
	return started, nil
}

// EstimateFee quotes the relay and protocol fees for a request without
// reserving it or touching the wallet. Gas units and price are best effort:
// a node that cannot estimate leaves them zero.
func (s *Submitter) EstimateFee(ctx context.Context, req Request) (Estimate, error) {
	in, err := validate(req)
	if err != nil {
		return Estimate{}, err
	}
	b, err := s.bindings.Current()
	if err != nil {
		return Estimate{}, err
	}
	c, err := buildCall(b, in)
	if err != nil {
		return Estimate{}, err
	}

	relayFee, err := b.FeeRelayer.EstimateFee(ctx, c.contract, c.data)
	if err != nil {
		return Estimate{}, walleterr.Translate(err, walleterr.ContractCallFailed)
	}
	protocolFee, err := b.Payment.TransactionFee(ctx, in.baseUnits)
	if err != nil {
		return Estimate{}, walleterr.Translate(err, walleterr.ContractCallFailed)
	}

	est := Estimate{
		Kind:        in.kind,
		Amount:      in.amount,
		RelayFee:    units.FromBaseUnits(relayFee, constants.TokenDecimals),
		ProtocolFee: units.FromBaseUnits(protocolFee, constants.TokenDecimals),
	}
	s.estimateGas(ctx, b.Account, c, &est)
	return est, nil
}

func (s *Submitter) estimateGas(ctx context.Context, from common.Address, c call, est *Estimate) {
	price, err := s.node.SuggestGasPrice(ctx)
	if err != nil {
		s.logger.Debug("Gas price unavailable", zap.Error(err))
		price = nil
	}
	to := c.contract
	gas, err := s.node.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: c.data})
	if err != nil {
		s.logger.Debug("Gas estimate unavailable", zap.String("kind", string(est.Kind)), zap.Error(err))
		gas = 0
	}

	est.GasLimit = gas
	est.GasPriceGwei = units.FromBaseUnits(price, constants.GweiDecimals)
	if price != nil {
		cost := new(big.Int).Mul(price, new(big.Int).SetUint64(gas))
		est.NetworkFee = units.FromBaseUnits(cost, constants.NativeDecimals)
	}
}

// Active returns in-flight transactions, oldest first.
func (s *Submitter) Active() []PendingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingTransaction, 0, len(s.active))
	for _, tx := range s.active {
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Recent returns finished transactions, newest first.
func (s *Submitter) Recent() []PendingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PendingTransaction(nil), s.recent...)
}

type input struct {
	kind      Kind
	amount    decimal.Decimal
	baseUnits *big.Int
	target    common.Address
	loanID    *big.Int
}

type job struct {
	tx   *PendingTransaction
	b    *contracts.Bindings
	in   input
	call call
}

// prepare validates the amount and target, reserves the kind and resolves
// the bindings, in that order. None of it touches the chain.
func (s *Submitter) prepare(req Request) (*job, error) {
	in, err := validate(req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tx := &PendingTransaction{
		ID:        uuid.New(),
		Kind:      in.kind,
		Amount:    in.amount,
		Target:    strings.TrimSpace(req.Target),
		LoanID:    strings.TrimSpace(req.LoanID),
		Status:    StatusBuilding,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	if _, busy := s.active[in.kind]; busy {
		s.mu.Unlock()
		return nil, walleterr.ErrDuplicateInFlight
	}
	s.active[in.kind] = tx
	s.mu.Unlock()

	b, err := s.bindings.Current()
	if err != nil {
		s.release(tx)
		return nil, walleterr.ErrNotConnected
	}
	c, err := buildCall(b, in)
	if err != nil {
		s.release(tx)
		return nil, err
	}

	s.logger.Info("Transaction started",
		zap.String("id", tx.ID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.String("amount", tx.Amount.String()))
	s.update(tx, func(tx *PendingTransaction) { tx.Status = StatusBuilding })
	return &job{tx: tx, b: b, in: in, call: c}, nil
}

func (s *Submitter) run(ctx context.Context, j *job) (PendingTransaction, error) {
	if j.in.kind == KindTransfer {
		held, err := j.b.Token.BalanceOf(ctx, j.b.Account)
		if err != nil {
			return s.fail(j, walleterr.Translate(err, walleterr.ContractCallFailed))
		}
		if held.Cmp(j.in.baseUnits) < 0 {
			return s.fail(j, walleterr.ErrInsufficientBalance)
		}
	}

	s.update(j.tx, func(tx *PendingTransaction) { tx.Status = StatusAwaitingSignature })

	sent, err := j.call.send(ctx)
	if err != nil {
		return s.fail(j, walleterr.Translate(err, walleterr.ContractCallFailed))
	}

	s.update(j.tx, func(tx *PendingTransaction) {
		tx.Status = StatusSubmitted
		tx.Hash = sent.Hash.Hex()
	})
	s.logger.Info("Transaction submitted",
		zap.String("id", j.tx.ID.String()),
		zap.String("hash", sent.Hash.Hex()))

	receipt, err := s.waitForReceipt(ctx, sent.Hash)
	if err != nil {
		return s.fail(j, walleterr.Translate(err, walleterr.ContractCallFailed))
	}

	if receipt.Status == types.ReceiptStatusFailed {
		werr := walleterr.ErrTransactionReverted
		if reason := j.b.RevertReason(ctx, sent, receipt.BlockNumber); reason != "" {
			werr = walleterr.New(walleterr.TransactionReverted, "Transaction reverted: "+reason, nil)
		}
		return s.fail(j, werr)
	}

	return s.confirm(ctx, j, sent, receipt)
}

func (s *Submitter) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	var receipt *types.Receipt
	operation := func() error {
		r, err := s.node.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) || (err == nil && r == nil) {
			return errNotMined
		}
		if err != nil {
			s.logger.Debug("Receipt poll failed", zap.String("hash", hash.Hex()), zap.Error(err))
			return err
		}
		receipt = r
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.PollInterval), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("failed to confirm transaction %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}

func (s *Submitter) confirm(ctx context.Context, j *job, sent *contracts.SentTx, receipt *types.Receipt) (PendingTransaction, error) {
	final := s.finish(j.tx, func(tx *PendingTransaction) { tx.Status = StatusConfirmed })

	s.logger.Info("Transaction confirmed",
		zap.String("id", final.ID.String()),
		zap.String("hash", final.Hash),
		zap.Uint64("block", receipt.BlockNumber.Uint64()))
	s.notifier.Notify(notify.Success(constants.TitleTransactionSucceeded, describe(final)))

	if _, err := s.balances.Refresh(ctx); err != nil {
		s.logger.Debug("Balance refresh after confirmation failed", zap.Error(err))
	}

	s.mu.Lock()
	ledger := s.ledger
	s.mu.Unlock()
	if ledger != nil {
		record := backend.TransactionRecord{
			Type:        string(final.Kind),
			Amount:      final.Amount.String(),
			Currency:    constants.TokenSymbol,
			Hash:        final.Hash,
			From:        strings.ToLower(sent.From.Hex()),
			To:          strings.ToLower(sent.To.Hex()),
			Recipient:   final.Target,
			Status:      string(final.Status),
			Description: describe(final),
		}
		if err := ledger.RecordTransaction(ctx, record); err != nil {
			s.logger.Warn("Failed to record transaction", zap.String("hash", final.Hash), zap.Error(err))
		}
	}
	return final, nil
}

// fail moves the transaction to Failed and raises its single notification.
func (s *Submitter) fail(j *job, werr *walleterr.Error) (PendingTransaction, error) {
	final := s.finish(j.tx, func(tx *PendingTransaction) {
		tx.Status = StatusFailed
		tx.ErrorCode = werr.Code
		tx.ErrorMessage = werr.Message
	})

	s.logger.Warn("Transaction failed",
		zap.String("id", final.ID.String()),
		zap.String("kind", string(final.Kind)),
		zap.String("code", string(werr.Code)),
		zap.Error(werr))

	title := constants.TitleTransactionFailed
	if werr.Code == walleterr.InsufficientBalance {
		title = constants.TitleInsufficientBalance
	}
	s.notifier.Notify(notify.Failure(title, werr.Message))
	return final, werr
}

func (s *Submitter) update(tx *PendingTransaction, mutate func(*PendingTransaction)) PendingTransaction {
	s.mu.Lock()
	mutate(tx)
	tx.UpdatedAt = time.Now()
	snapshot := *tx
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return snapshot
}

// finish applies a terminal transition and frees the kind.
func (s *Submitter) finish(tx *PendingTransaction, mutate func(*PendingTransaction)) PendingTransaction {
	return s.update(tx, func(tx *PendingTransaction) {
		mutate(tx)
		if s.active[tx.Kind] == tx {
			delete(s.active, tx.Kind)
		}
		s.recent = append([]PendingTransaction{*tx}, s.recent...)
		if len(s.recent) > recentLimit {
			s.recent = s.recent[:recentLimit]
		}
	})
}

func (s *Submitter) release(tx *PendingTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[tx.Kind] == tx {
		delete(s.active, tx.Kind)
	}
}

func (s *Submitter) snapshot(tx *PendingTransaction) PendingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *tx
}

func describe(tx PendingTransaction) string {
	amount := units.Format(tx.Amount, 4) + " " + constants.TokenSymbol
	switch tx.Kind {
	case KindTransfer:
		return fmt.Sprintf("Sent %s to %s", amount, chain.ShortAddress(tx.Target))
	case KindApproveCollateral:
		return fmt.Sprintf("Approved %s as collateral", amount)
	case KindCreateLoan:
		return fmt.Sprintf("Loan request for %s submitted", amount)
	case KindRepayLoan:
		return fmt.Sprintf("Repaid %s on loan #%s", amount, tx.LoanID)
	case KindClaimReward:
		return fmt.Sprintf("Claimed %s in rewards", amount)
	default:
		return amount
	}
}
