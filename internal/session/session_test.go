package session_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	httpClient "github.com/nepalipay/nepalipay-web3/internal/client/http"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
	"github.com/nepalipay/nepalipay-web3/internal/session"
	"github.com/nepalipay/nepalipay-web3/internal/testutil"
	"github.com/nepalipay/nepalipay-web3/internal/transaction"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

var alice = common.HexToAddress("0x1111111111111111111111111111111111111111")

type fakeChain struct {
	*testutil.Responder
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(1e18), nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1), TxHash: hash}, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(3e9), nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 60000, nil
}

type createdWallet struct {
	userID  int64
	address string
}

type fakeBackend struct {
	mu         sync.Mutex
	user       *backend.User
	profileErr error
	wallet     *backend.Wallet
	created    []createdWallet
	recordErr  error
	recorded   []backend.TransactionRecord
	listErr    error
	intentErr  error
	intents    []decimal.Decimal
}

func (b *fakeBackend) GetProfile(context.Context) (*backend.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user, b.profileErr
}

func (b *fakeBackend) GetWallet(context.Context) (*backend.Wallet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wallet == nil {
		return nil, &httpClient.HTTPError{StatusCode: 404, Body: `{"error":"Wallet not found"}`}
	}
	return b.wallet, nil
}

func (b *fakeBackend) CreateWallet(_ context.Context, userID int64, address string) (*backend.Wallet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, createdWallet{userID, address})
	b.wallet = &backend.Wallet{UserID: userID, Address: address, Balance: "0", Currency: "NPT"}
	return b.wallet, nil
}

func (b *fakeBackend) RecordTransaction(_ context.Context, record backend.TransactionRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorded = append(b.recorded, record)
	return b.recordErr
}

func (b *fakeBackend) ListTransactions(context.Context) ([]backend.TransactionRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]backend.TransactionRecord(nil), b.recorded...), nil
}

func (b *fakeBackend) CreatePaymentIntent(_ context.Context, amount decimal.Decimal) (*backend.PaymentIntent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.intentErr != nil {
		return nil, b.intentErr
	}
	b.intents = append(b.intents, amount)
	return &backend.PaymentIntent{ClientSecret: "pi_secret", NPTAmount: amount}, nil
}

func (b *fakeBackend) createdWallets() []createdWallet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]createdWallet(nil), b.created...)
}

type fixture struct {
	s         *session.Session
	wallet    *testutil.FakeWallet
	responder *testutil.Responder
	backend   *fakeBackend
	notes     *testutil.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	responder := testutil.NewResponder(contracts.MustLoadABIs())
	responder.
		On("balanceOf", testutil.Returns(new(big.Int).Mul(big.NewInt(25), big.NewInt(1e18)))).
		On("getExchangeRate", testutil.Returns(big.NewInt(1e18)))

	f := &fixture{
		wallet:    testutil.NewFakeWallet(constants.BSCMainnetChainID, alice),
		responder: responder,
		backend:   &fakeBackend{user: &backend.User{ID: 5, Username: "ram"}},
		notes:     &testutil.Recorder{},
	}
	f.wallet.TxHash = common.HexToHash("0xbeef")

	s, err := session.New(session.Config{
		Network:     chain.BSCMainnet(),
		Addresses:   contracts.DefaultAddresses(),
		Transaction: transaction.Config{PollInterval: 5 * time.Millisecond},
		Realtime:    realtime.Config{URL: "ws://127.0.0.1:1/ws", ReconnectDelay: time.Hour},
	}, session.Deps{
		Wallet:   f.wallet,
		Chain:    &fakeChain{responder},
		Backend:  f.backend,
		Notifier: f.notes,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	f.s = s
	return f
}

func TestNew_RequiresChainClient(t *testing.T) {
	_, err := session.New(session.Config{Network: chain.BSCMainnet()}, session.Deps{})
	assert.Error(t, err)
}

func TestConnectBindsAndRefreshes(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.s.Manager.Connect(context.Background()))

	b, err := f.s.Registry.Current()
	require.NoError(t, err)
	assert.Equal(t, alice, b.Account)

	require.Eventually(t, func() bool {
		return f.s.Balances.Snapshot().Account == alice.Hex()
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "25", f.s.Balances.Snapshot().TokenBalance.String())
}

func TestDisconnectClearsBindingsAndBalances(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.s.Manager.Connect(context.Background()))
	require.Eventually(t, func() bool {
		return f.s.Balances.Snapshot().Account != ""
	}, 2*time.Second, 5*time.Millisecond)

	f.s.Manager.Disconnect()

	_, err := f.s.Registry.Current()
	assert.ErrorIs(t, err, walleterr.ErrNotConnected)
	assert.Empty(t, f.s.Balances.Snapshot().Account)
}

func TestChainChangeLeavesNoStaleBindings(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.s.Manager.Connect(context.Background()))

	f.wallet.ChangeChain(constants.BSCTestnetChainID)

	require.Eventually(t, func() bool {
		return f.s.Manager.State().Status == chain.StatusWrongNetwork
	}, 2*time.Second, 5*time.Millisecond)
	_, err := f.s.Registry.Current()
	assert.ErrorIs(t, err, walleterr.ErrNotConnected)
}

func TestLogin_RestoresWalletAndCreatesRecord(t *testing.T) {
	f := setup(t)
	f.wallet.Authorise()

	user, err := f.s.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, user, f.s.User())
	assert.Equal(t, chain.StatusConnected, f.s.Manager.State().Status)

	require.Eventually(t, func() bool { return len(f.backend.createdWallets()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, createdWallet{5, strings.ToLower(alice.Hex())}, f.backend.createdWallets()[0])
}

func TestLogin_Unauthenticated(t *testing.T) {
	f := setup(t)
	f.backend.profileErr = walleterr.Wrap(walleterr.ErrUnauthenticated, errors.New("401"))

	_, err := f.s.Login(context.Background())

	assert.ErrorIs(t, err, walleterr.ErrUnauthenticated)
	assert.Nil(t, f.s.User())
	assert.Contains(t, f.notes.Titles(), constants.TitleSessionExpired)
}

func TestLedgerRejectionExpiresSession(t *testing.T) {
	f := setup(t)
	_, err := f.s.Login(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.s.Manager.Connect(context.Background()))
	f.backend.mu.Lock()
	f.backend.recordErr = walleterr.Wrap(walleterr.ErrUnauthenticated, errors.New("401"))
	f.backend.mu.Unlock()

	tx, err := f.s.Transactions.Submit(context.Background(), transaction.Request{
		Kind:   transaction.KindClaimReward,
		Amount: "2",
	})

	require.NoError(t, err)
	assert.Equal(t, transaction.StatusConfirmed, tx.Status)
	assert.Nil(t, f.s.User())
	assert.Contains(t, f.notes.Titles(), constants.TitleSessionExpired)
	assert.Equal(t, chain.StatusDisconnected, f.s.Manager.State().Status)
	assert.Equal(t, realtime.StateDisconnected, f.s.Realtime.State())
}

func TestHistory(t *testing.T) {
	f := setup(t)

	records, err := f.s.History(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)

	_, err = f.s.Login(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.s.Manager.Connect(context.Background()))
	_, err = f.s.Transactions.Submit(context.Background(), transaction.Request{
		Kind:   transaction.KindClaimReward,
		Amount: "2",
	})
	require.NoError(t, err)

	records, err = f.s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "claim_reward", records[0].Type)
	assert.Equal(t, "2", records[0].Amount)
}

func TestHistory_RejectedCookieExpiresSession(t *testing.T) {
	f := setup(t)
	_, err := f.s.Login(context.Background())
	require.NoError(t, err)
	f.backend.mu.Lock()
	f.backend.listErr = walleterr.Wrap(walleterr.ErrUnauthenticated, errors.New("401"))
	f.backend.mu.Unlock()

	_, err = f.s.History(context.Background())

	assert.ErrorIs(t, err, walleterr.ErrUnauthenticated)
	assert.Nil(t, f.s.User())
	assert.Contains(t, f.notes.Titles(), constants.TitleSessionExpired)
}

func TestCreatePaymentIntent(t *testing.T) {
	f := setup(t)

	_, err := f.s.CreatePaymentIntent(context.Background(), decimal.NewFromInt(50))
	assert.ErrorIs(t, err, walleterr.ErrUnauthenticated)

	_, err = f.s.Login(context.Background())
	require.NoError(t, err)

	intent, err := f.s.CreatePaymentIntent(context.Background(), decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, "pi_secret", intent.ClientSecret)
	assert.Equal(t, []decimal.Decimal{decimal.NewFromInt(50)}, f.backend.intents)
}
