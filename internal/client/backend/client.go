// Package backend is the client for the NepaliPay REST API. Requests carry
// the session cookie issued at sign-in; bodies are plain JSON.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	httpClient "github.com/nepalipay/nepalipay-web3/internal/client/http"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	profilePath       = "/api/profile"
	walletPath        = "/api/wallet"
	transactionsPath  = "/api/transactions"
	paymentIntentPath = "/api/create-payment-intent"
)

// User is the signed-in account as returned by the profile endpoint.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Role          string `json:"role,omitempty"`
	KYCStatus     string `json:"kycStatus,omitempty"`
}

// Wallet is the server-side wallet record of a user.
type Wallet struct {
	ID         int64      `json:"id,omitempty"`
	UserID     int64      `json:"userId"`
	Address    string     `json:"address,omitempty"`
	Balance    string     `json:"balance"`
	Currency   string     `json:"currency"`
	NPTBalance string     `json:"nptBalance,omitempty"`
	BNBBalance string     `json:"bnbBalance,omitempty"`
	IsPrimary  bool       `json:"isPrimary,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// TransactionRecord is a ledger entry for an on-chain transaction.
type TransactionRecord struct {
	ID          int64  `json:"id,omitempty"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Hash        string `json:"txHash,omitempty"`
	From        string `json:"fromAddress,omitempty"`
	To          string `json:"toAddress,omitempty"`
	Recipient   string `json:"receiverAddress,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// PaymentIntent is a fiat top-up quote issued by the payment processor.
type PaymentIntent struct {
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
	NPTAmount    decimal.Decimal `json:"nptAmount"`
	GasFee       decimal.Decimal `json:"gasFee"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the REST API.
type Client struct {
	http   *httpClient.Client
	logger *zap.Logger
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, options ...httpClient.ClientOption) *Client {
	options = append([]httpClient.ClientOption{httpClient.WithBaseURL(baseURL)}, options...)
	return &Client{
		http:   httpClient.New(options...),
		logger: logger.Named("backend"),
	}
}

// GetProfile returns the user of the current session.
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, profilePath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWallet returns the wallet record of the current user.
func (c *Client) GetWallet(ctx context.Context) (*Wallet, error) {
	var wallet Wallet
	if err := c.do(ctx, http.MethodGet, walletPath, nil, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CreateWallet creates an empty token wallet record for userID.
func (c *Client) CreateWallet(ctx context.Context, userID int64, address string) (*Wallet, error) {
	req := Wallet{UserID: userID, Address: address, Balance: "0", Currency: "NPT"}
	var wallet Wallet
	if err := c.do(ctx, http.MethodPost, walletPath, req, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ListTransactions returns the ledger of the current user.
func (c *Client) ListTransactions(ctx context.Context) ([]TransactionRecord, error) {
	var records []TransactionRecord
	if err := c.do(ctx, http.MethodGet, transactionsPath, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordTransaction appends a confirmed transaction to the ledger. The write
// is not retried.
func (c *Client) RecordTransaction(ctx context.Context, record TransactionRecord) error {
	return c.do(ctx, http.MethodPost, transactionsPath, record, nil)
}

// CreatePaymentIntent requests a card payment for amount tokens.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*PaymentIntent, error) {
	req := map[string]json.Number{"amount": json.Number(amount.String())}
	var intent PaymentIntent
	if err := c.do(ctx, http.MethodPost, paymentIntentPath, req, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.http.Do(ctx, method, path, body)
	if err != nil {
		var httpErr *httpClient.HTTPError
		if !errors.As(err, &httpErr) {
			return errors.Wrapf(err, "failed to %s %s", method, path)
		}
		if httpErr.StatusCode == http.StatusUnauthorized {
			c.logger.Info("Session rejected by API", zap.String("path", path))
			return walleterr.Wrap(walleterr.ErrUnauthenticated, httpErr)
		}
		return errors.Wrap(apiError(httpErr), "nepalipay api error")
	}
	if err := c.http.DecodeJSON(resp, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", path)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var httpErr *httpClient.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

func apiError(httpErr *httpClient.HTTPError) error {
	var resp errorResponse
	if err := json.Unmarshal([]byte(httpErr.Body), &resp); err != nil {
		return httpErr
	}
	msg := resp.Error
	if msg == "" {
		msg = resp.Message
	}
	if msg == "" {
		return httpErr
	}
	return errors.Wrapf(httpErr, "%s", msg)
}
