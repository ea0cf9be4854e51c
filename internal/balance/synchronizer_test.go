package balance_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/balance"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/mocks"
	"github.com/nepalipay/nepalipay-web3/internal/testutil"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	logger.InitLogger("test")
}

var account = common.HexToAddress("0x3333333333333333333333333333333333333333")

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return v
}

type fixture struct {
	sync      *balance.Synchronizer
	registry  *contracts.Registry
	responder *testutil.Responder
	reader    *mocks.MockBalanceReader
	signer    *mocks.MockSigner
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	abis := contracts.MustLoadABIs()
	responder := testutil.NewResponder(abis)
	registry := contracts.NewRegistry(responder, contracts.DefaultAddresses(), abis)

	signer := mocks.NewMockSigner(ctrl)
	signer.EXPECT().Address().Return(account).AnyTimes()

	reader := mocks.NewMockBalanceReader(ctrl)

	return &fixture{
		sync:      balance.NewSynchronizer(reader, registry, nil),
		registry:  registry,
		responder: responder,
		reader:    reader,
		signer:    signer,
	}
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	_, err := f.registry.Bind(chain.ConnectionState{
		Status:  chain.StatusConnected,
		Account: "0x3333333333333333333333333333333333333333",
		ChainID: 56,
	}, f.signer)
	require.NoError(t, err)
}

func TestRefresh_Success(t *testing.T) {
	f := setup(t)
	f.connect(t)

	f.reader.EXPECT().BalanceAt(gomock.Any(), account, nil).Return(wei("2000000000000000000"), nil)
	f.responder.
		On("balanceOf", testutil.Returns(wei("100500000000000000000"))).
		On("getExchangeRate", testutil.Returns(wei("1500000000000000000")))

	before := time.Now()
	snap, err := f.sync.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2", snap.NativeBalance.String())
	assert.Equal(t, "100.5", snap.TokenBalance.String())
	assert.Equal(t, "1.5", snap.Rate.Value.String())
	assert.False(t, snap.Rate.Fallback)
	assert.Equal(t, balance.RateSourceContract, snap.Rate.Source)
	assert.Equal(t, "150.75", snap.FiatEquivalent.String())
	assert.False(t, snap.AsOf.Before(before))
	assert.Equal(t, account.Hex(), snap.Account)
	assert.Equal(t, snap, f.sync.Snapshot())
}

func TestRefresh_KeepsSnapshotOnError(t *testing.T) {
	f := setup(t)
	f.connect(t)

	f.reader.EXPECT().BalanceAt(gomock.Any(), account, nil).Return(wei("1000000000000000000"), nil).Times(2)
	f.responder.
		On("balanceOf", testutil.Returns(wei("5000000000000000000"))).
		On("getExchangeRate", testutil.Returns(wei("1000000000000000000")))

	first, err := f.sync.Refresh(context.Background())
	require.NoError(t, err)

	f.responder.On("balanceOf", testutil.Fails(errors.New("rpc timeout")))

	second, err := f.sync.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterr.ErrNetworkFetchFailed)
	assert.Equal(t, first, second)
	assert.Equal(t, first, f.sync.Snapshot())
}

func TestRefresh_NativeBalanceFailure(t *testing.T) {
	f := setup(t)
	f.connect(t)

	f.reader.EXPECT().BalanceAt(gomock.Any(), account, nil).Return(nil, errors.New("connection reset"))

	snap, err := f.sync.Refresh(context.Background())

	assert.ErrorIs(t, err, walleterr.ErrNetworkFetchFailed)
	assert.Equal(t, balance.Snapshot{}, snap)
	assert.Zero(t, f.responder.Count("balanceOf"))
}

func TestRefresh_NotConnected(t *testing.T) {
	f := setup(t)

	snap, err := f.sync.Refresh(context.Background())

	assert.ErrorIs(t, err, walleterr.ErrNotConnected)
	assert.Equal(t, balance.Snapshot{}, snap)
}

func TestRefresh_ConcurrentCallersShareOneFetch(t *testing.T) {
	f := setup(t)
	f.connect(t)

	started := make(chan struct{})
	release := make(chan struct{})
	f.reader.EXPECT().
		BalanceAt(gomock.Any(), account, nil).
		DoAndReturn(func(context.Context, common.Address, *big.Int) (*big.Int, error) {
			close(started)
			<-release
			return wei("1000000000000000000"), nil
		}).
		Times(1)
	f.responder.
		On("balanceOf", testutil.Returns(wei("1000000000000000000"))).
		On("getExchangeRate", testutil.Returns(wei("1000000000000000000")))

	var wg sync.WaitGroup
	results := make([]balance.Snapshot, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = f.sync.Refresh(context.Background())
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = f.sync.Refresh(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, results[0], results[1])
	assert.Equal(t, 1, f.responder.Count("balanceOf"))
}

func TestRefresh_DiscardsResultForReplacedBindings(t *testing.T) {
	f := setup(t)
	f.connect(t)

	f.reader.EXPECT().
		BalanceAt(gomock.Any(), account, nil).
		DoAndReturn(func(context.Context, common.Address, *big.Int) (*big.Int, error) {
			f.registry.Clear()
			return wei("1000000000000000000"), nil
		})
	f.responder.
		On("balanceOf", testutil.Returns(wei("1000000000000000000"))).
		On("getExchangeRate", testutil.Returns(wei("1000000000000000000")))

	snap, err := f.sync.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, balance.Snapshot{}, snap)
	assert.Equal(t, balance.Snapshot{}, f.sync.Snapshot())
}

func TestExchangeRate_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		result testutil.CallResult
	}{
		{"zero rate", testutil.Returns(big.NewInt(0))},
		{"call fails", testutil.Fails(errors.New("execution reverted"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.connect(t)
			f.responder.On("getExchangeRate", tt.result)

			rate := f.sync.ExchangeRate(context.Background())

			assert.True(t, rate.Fallback)
			assert.Equal(t, balance.RateSourceFallback, rate.Source)
			assert.True(t, rate.Value.Equal(decimal.NewFromInt(1)))
		})
	}

	t.Run("not connected", func(t *testing.T) {
		f := setup(t)
		assert.Equal(t, balance.FallbackRate(), f.sync.ExchangeRate(context.Background()))
	})
}

func TestQuote(t *testing.T) {
	f := setup(t)
	f.connect(t)
	f.responder.On("getExchangeRate", testutil.Returns(wei("2000000000000000000")))

	tests := []struct {
		channel balance.Channel
		amount  string
		fiat    string
		fee     string
		total   string
	}{
		{balance.ChannelCard, "100", "200", "4", "204"},
		{balance.ChannelBankTransfer, "100", "200", "2", "202"},
		{balance.ChannelWallet, "12.5", "25", "0", "25"},
	}
	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			q, err := f.sync.Quote(context.Background(), decimal.RequireFromString(tt.amount), tt.channel)
			require.NoError(t, err)

			assert.Equal(t, tt.fiat, q.FiatAmount.String())
			assert.Equal(t, tt.fee, q.Fee.String())
			assert.Equal(t, tt.total, q.Total.String())
			assert.Equal(t, "USD", q.Currency)
			assert.False(t, q.Rate.Fallback)
		})
	}

	_, err := f.sync.Quote(context.Background(), decimal.Zero, balance.ChannelCard)
	assert.ErrorIs(t, err, walleterr.ErrInvalidAmount)

	_, err = f.sync.Quote(context.Background(), decimal.NewFromInt(1), balance.Channel("crypto_atm"))
	assert.ErrorIs(t, err, balance.ErrUnknownChannel)
}

func TestRun_StopsWithContext(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sync.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
