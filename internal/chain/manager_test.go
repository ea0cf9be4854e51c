package chain_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/testutil"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

var (
	alice = common.HexToAddress("0xAbC0000000000000000000000000000000000001")
	bob   = common.HexToAddress("0xBBb0000000000000000000000000000000000002")
)

type transitions struct {
	mu   sync.Mutex
	seen []chain.Status
}

func (tr *transitions) observe(_, next chain.ConnectionState) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.seen = append(tr.seen, next.Status)
}

func (tr *transitions) statuses() []chain.Status {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]chain.Status(nil), tr.seen...)
}

func newManager(t *testing.T, wallet chain.Wallet) (*chain.Manager, *testutil.Recorder, *transitions) {
	t.Helper()
	rec := &testutil.Recorder{}
	tr := &transitions{}
	m := chain.NewManager(wallet, chain.BSCMainnet(), rec)
	m.OnStateChange(tr.observe)
	t.Cleanup(m.Close)
	return m, rec, tr
}

func waitForStatus(t *testing.T, m *chain.Manager, status chain.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.State().Status == status
	}, 2*time.Second, 5*time.Millisecond, "expected status %s, got %s", status, m.State().Status)
}

// eventuallyEqual waits for values recorded by event-driven transitions,
// which land on the watcher goroutine.
func eventuallyEqual(t *testing.T, want interface{}, got func() interface{}) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, got())
	}, 2*time.Second, 5*time.Millisecond, "last value: %v", got())
}

func TestConnect_NoWallet(t *testing.T) {
	m, rec, tr := newManager(t, nil)

	err := m.Connect(context.Background())

	require.ErrorIs(t, err, walleterr.ErrWalletNotFound)
	assert.Equal(t, chain.StatusDisconnected, m.State().Status)
	assert.Empty(t, tr.statuses())

	notes := rec.All()
	require.Len(t, notes, 1)
	assert.Equal(t, constants.TitleWalletNotFound, notes[0].Title)
	require.NotNil(t, notes[0].Action)
	assert.Equal(t, constants.WalletInstallURL, notes[0].Action.URL)
}

func TestConnect_Success(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, rec, tr := newManager(t, wallet)

	require.NoError(t, m.Connect(context.Background()))

	state := m.State()
	assert.Equal(t, chain.StatusConnected, state.Status)
	assert.Equal(t, strings.ToLower(alice.Hex()), state.Account)
	assert.Equal(t, constants.BSCMainnetChainID, state.ChainID)
	assert.Equal(t, []chain.Status{chain.StatusConnecting, chain.StatusConnected}, tr.statuses())
	assert.Equal(t, []string{constants.TitleWalletConnected}, rec.Titles())
	assert.Contains(t, rec.All()[0].Description, chain.ShortAddress(state.Account))
}

func TestConnect_UserRejectsAccounts(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	wallet.RequestAccountsErr = testutil.Rejected()
	m, rec, tr := newManager(t, wallet)

	err := m.Connect(context.Background())

	require.ErrorIs(t, err, walleterr.ErrUserRejected)
	assert.Equal(t, chain.ConnectionState{Status: chain.StatusDisconnected}, m.State())
	assert.Equal(t, []chain.Status{chain.StatusConnecting, chain.StatusDisconnected}, tr.statuses())
	assert.Equal(t, []string{constants.TitleConnectionError}, rec.Titles())
}

func TestConnect_AddsUnknownChainAndSwitches(t *testing.T) {
	wallet := testutil.NewFakeWallet(1, alice)
	m, rec, tr := newManager(t, wallet)

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, chain.StatusConnected, m.State().Status)
	assert.Equal(t, constants.BSCMainnetChainID, m.State().ChainID)
	assert.Equal(t, []chain.Status{chain.StatusConnecting, chain.StatusWrongNetwork, chain.StatusConnected}, tr.statuses())
	assert.Equal(t, []string{constants.TitleWalletConnected}, rec.Titles())

	assert.Equal(t, []string{
		constants.MethodRequestAccounts,
		constants.MethodChainID,
		constants.MethodSwitchChain,
		constants.MethodAddChain,
		constants.MethodSwitchChain,
		constants.MethodChainID,
	}, wallet.Calls())

	added := wallet.AddChainParams()
	require.Len(t, added, 1)
	assert.Equal(t, "0x38", added[0]["chainId"])
	assert.Equal(t, "Binance Smart Chain", added[0]["chainName"])
	assert.Equal(t, []interface{}{"https://bsc-dataseed.binance.org/"}, added[0]["rpcUrls"])
	currency := added[0]["nativeCurrency"].(map[string]interface{})
	assert.Equal(t, "BNB", currency["symbol"])
	assert.Equal(t, float64(18), currency["decimals"])
}

func TestConnect_SwitchRefusedStaysOnWrongNetwork(t *testing.T) {
	wallet := testutil.NewFakeWallet(1, alice)
	wallet.FailSwitch(testutil.Rejected(), testutil.Rejected())
	m, rec, _ := newManager(t, wallet)

	err := m.Connect(context.Background())

	require.NoError(t, err)
	state := m.State()
	assert.Equal(t, chain.StatusWrongNetwork, state.Status)
	assert.Equal(t, uint64(1), state.ChainID)
	assert.Equal(t, strings.ToLower(alice.Hex()), state.Account)
	assert.Equal(t, []string{constants.TitleNetworkError}, rec.Titles())

	_, err = m.Signer()
	assert.ErrorIs(t, err, walleterr.ErrNotConnected)
}

func TestConnect_SwitchFailsWithUnrelatedError(t *testing.T) {
	wallet := testutil.NewFakeWallet(1, alice)
	wallet.FailSwitch(errors.New("internal wallet error"))
	m, rec, _ := newManager(t, wallet)

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, chain.StatusWrongNetwork, m.State().Status)
	assert.NotContains(t, wallet.Calls(), constants.MethodAddChain)
	assert.Equal(t, []string{constants.TitleNetworkError}, rec.Titles())
}

func TestDisconnect_IsIdempotent(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, rec, _ := newManager(t, wallet)
	require.NoError(t, m.Connect(context.Background()))

	m.Disconnect()
	m.Disconnect()

	assert.Equal(t, chain.ConnectionState{Status: chain.StatusDisconnected}, m.State())
	assert.Equal(t, []string{constants.TitleWalletConnected, constants.TitleWalletDisconnected}, rec.Titles())
}

func TestRestore(t *testing.T) {
	t.Run("authorised account reconnects silently", func(t *testing.T) {
		wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
		wallet.Authorise()
		m, rec, _ := newManager(t, wallet)

		require.NoError(t, m.Restore(context.Background()))

		assert.Equal(t, chain.StatusConnected, m.State().Status)
		assert.Empty(t, rec.Titles())
		assert.NotContains(t, wallet.Calls(), constants.MethodRequestAccounts)
	})

	t.Run("no authorised account", func(t *testing.T) {
		wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
		m, rec, _ := newManager(t, wallet)

		require.NoError(t, m.Restore(context.Background()))

		assert.Equal(t, chain.StatusDisconnected, m.State().Status)
		assert.Empty(t, rec.Titles())
	})

	t.Run("wrong network warns once without prompting", func(t *testing.T) {
		wallet := testutil.NewFakeWallet(constants.BSCTestnetChainID, alice)
		wallet.Authorise()
		m, rec, _ := newManager(t, wallet)

		require.NoError(t, m.Restore(context.Background()))

		assert.Equal(t, chain.StatusWrongNetwork, m.State().Status)
		assert.Equal(t, []string{constants.TitleWrongNetwork}, rec.Titles())
		assert.NotContains(t, wallet.Calls(), constants.MethodSwitchChain)
	})
}

func TestEvents_AccountsClearedDisconnects(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, rec, _ := newManager(t, wallet)
	require.NoError(t, m.Connect(context.Background()))

	wallet.Emit(chain.Event{Type: chain.EventAccountsChanged})

	waitForStatus(t, m, chain.StatusDisconnected)
	eventuallyEqual(t, []string{constants.TitleWalletConnected, constants.TitleWalletDisconnected},
		func() interface{} { return rec.Titles() })
}

func TestEvents_AccountSwitchReconnects(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, _, tr := newManager(t, wallet)
	require.NoError(t, m.Connect(context.Background()))

	wallet.SwitchAccount(bob)

	require.Eventually(t, func() bool {
		return m.State().Account == strings.ToLower(bob.Hex())
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, chain.StatusConnected, m.State().Status)
	eventuallyEqual(t, []chain.Status{
		chain.StatusConnecting, chain.StatusConnected,
		chain.StatusConnecting, chain.StatusConnected,
	}, func() interface{} { return tr.statuses() })
}

func TestEvents_ChainChangeReloads(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, rec, tr := newManager(t, wallet)
	require.NoError(t, m.Connect(context.Background()))

	wallet.ChangeChain(constants.BSCTestnetChainID)
	waitForStatus(t, m, chain.StatusWrongNetwork)
	assert.Equal(t, constants.BSCTestnetChainID, m.State().ChainID)

	wallet.ChangeChain(constants.BSCMainnetChainID)
	waitForStatus(t, m, chain.StatusConnected)

	eventuallyEqual(t, []chain.Status{
		chain.StatusConnecting, chain.StatusConnected,
		chain.StatusDisconnected, chain.StatusWrongNetwork,
		chain.StatusDisconnected, chain.StatusConnected,
	}, func() interface{} { return tr.statuses() })
	assert.Equal(t, []string{constants.TitleWalletConnected, constants.TitleWrongNetwork}, rec.Titles())
}

func TestEvents_WalletDisconnect(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, _, _ := newManager(t, wallet)
	require.NoError(t, m.Connect(context.Background()))

	wallet.Emit(chain.Event{Type: chain.EventDisconnect})

	waitForStatus(t, m, chain.StatusDisconnected)
}

func TestEvents_SubscriptionFailureMovesToError(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	m, rec, _ := newManager(t, wallet)
	require.NoError(t, m.Connect(context.Background()))

	wallet.FailSubscription(errors.New("provider gone"))

	waitForStatus(t, m, chain.StatusError)
	assert.Empty(t, m.State().Account)
	eventuallyEqual(t, []string{constants.TitleWalletConnected, constants.TitleConnectionError},
		func() interface{} { return rec.Titles() })

	m.Disconnect()
	assert.Equal(t, chain.StatusDisconnected, m.State().Status)
}

func TestSigner_SendsThroughWallet(t *testing.T) {
	wallet := testutil.NewFakeWallet(constants.BSCMainnetChainID, alice)
	wallet.TxHash = common.HexToHash("0x1234")
	m, _, _ := newManager(t, wallet)

	_, err := m.Signer()
	require.ErrorIs(t, err, walleterr.ErrNotConnected)

	require.NoError(t, m.Connect(context.Background()))
	signer, err := m.Signer()
	require.NoError(t, err)
	assert.Equal(t, alice, signer.Address())

	to := common.HexToAddress(constants.TokenContractAddress)
	hash, err := signer.SendTransaction(context.Background(), to, []byte{0xa9, 0x05, 0x9c, 0xbb})
	require.NoError(t, err)
	assert.Equal(t, wallet.TxHash, hash)

	sent := wallet.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, alice, sent[0].From)
	assert.Equal(t, to, sent[0].To)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, []byte(sent[0].Data))
}

func TestNetwork(t *testing.T) {
	assert.Equal(t, "0x38", chain.BSCMainnet().ChainIDHex())
	assert.Equal(t, "0x61", chain.BSCTestnet().ChainIDHex())

	tests := []struct {
		chainID uint64
		want    string
	}{
		{0, "Not Connected"},
		{1, "Ethereum Mainnet"},
		{56, "Binance Smart Chain"},
		{97, "Binance Smart Chain Testnet"},
		{137, "Unknown Network"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chain.NetworkName(tt.chainID))
	}

	assert.Equal(t, "0xabc0...0001", chain.ShortAddress(strings.ToLower(alice.Hex())))
	assert.Equal(t, "connected", chain.StatusConnected.String())
}
