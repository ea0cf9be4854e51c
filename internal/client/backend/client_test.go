package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	httpClient "github.com/nepalipay/nepalipay-web3/internal/client/http"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

func newClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL, httpClient.WithRetryConfig(nil))
}

func TestGetProfile(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":7,"username":"sita","email":"sita@example.com","role":"user"}`))
	})

	user, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "sita", user.Username)
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Not authenticated"}`))
	}))
	defer srv.Close()
	client := backend.NewClient(srv.URL)

	_, err := client.GetWallet(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, walleterr.ErrUnauthenticated)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	})

	_, err := client.GetProfile(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "User not found")
	assert.NotErrorIs(t, err, walleterr.ErrUnauthenticated)
	var httpErr *httpClient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestRecordTransaction(t *testing.T) {
	var got map[string]interface{}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	err := client.RecordTransaction(context.Background(), backend.TransactionRecord{
		Type:     "transfer",
		Amount:   "10.5",
		Currency: "NPT",
		Hash:     "0xabc",
		Status:   "confirmed",
	})

	require.NoError(t, err)
	assert.Equal(t, "transfer", got["type"])
	assert.Equal(t, "10.5", got["amount"])
	assert.Equal(t, "0xabc", got["txHash"])
	assert.NotContains(t, got, "receiverAddress")
}

func TestCreateWallet(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(7), req["userId"])
		assert.Equal(t, "0", req["balance"])
		assert.Equal(t, "NPT", req["currency"])
		assert.NotContains(t, req, "createdAt")
		_, _ = w.Write([]byte(`{"id":3,"userId":7,"balance":"0","currency":"NPT","address":"0xabc"}`))
	})

	wallet, err := client.CreateWallet(context.Background(), 7, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, int64(3), wallet.ID)
	assert.Equal(t, "0xabc", wallet.Address)
}

func TestCreatePaymentIntent(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/create-payment-intent", r.URL.Path)
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(100), req["amount"])
		_, _ = w.Write([]byte(`{"clientSecret":"pi_secret","amount":102.5,"nptAmount":100,"gasFee":0.5}`))
	})

	intent, err := client.CreatePaymentIntent(context.Background(), decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "pi_secret", intent.ClientSecret)
	assert.Equal(t, "102.5", intent.Amount.String())
	assert.Equal(t, "0.5", intent.GasFee.String())
}

func TestListTransactions(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"type":"transfer","amount":"5","currency":"NPT","status":"confirmed"}]`))
	})

	records, err := client.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "5", records[0].Amount)
}

func TestIsNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Wallet not found"}`))
	})

	_, err := client.GetWallet(context.Background())

	assert.True(t, backend.IsNotFound(err))
	assert.False(t, backend.IsNotFound(walleterr.ErrUnauthenticated))
}

func TestRecordTransaction_NotRetriedOnGatewayError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := backend.NewClient(srv.URL)

	err := client.RecordTransaction(context.Background(), backend.TransactionRecord{
		Type:     "transfer",
		Amount:   "1",
		Currency: "NPT",
		Status:   "confirmed",
	})

	var httpErr *httpClient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
