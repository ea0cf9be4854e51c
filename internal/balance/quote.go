package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
)

// Channel is a fiat payment channel.
type Channel string

const (
	ChannelCard         Channel = "card"
	ChannelBankTransfer Channel = "bank_transfer"
	ChannelWallet       Channel = "wallet"
)

// ErrUnknownChannel is returned for a channel with no configured fee.
var ErrUnknownChannel = errors.New("unknown payment channel")

// DefaultFees are the processing fee fractions per channel.
func DefaultFees() map[Channel]decimal.Decimal {
	return map[Channel]decimal.Decimal{
		ChannelCard:         decimal.RequireFromString("0.02"),
		ChannelBankTransfer: decimal.RequireFromString("0.01"),
		ChannelWallet:       decimal.Zero,
	}
}

// Quote is the fiat cost of a token amount through a payment channel.
type Quote struct {
	Amount     decimal.Decimal `json:"amount"`
	Channel    Channel         `json:"channel"`
	Currency   string          `json:"currency"`
	Rate       Rate            `json:"rate"`
	FiatAmount decimal.Decimal `json:"fiatAmount"`
	FeeRate    decimal.Decimal `json:"feeRate"`
	Fee        decimal.Decimal `json:"fee"`
	Total      decimal.Decimal `json:"total"`
}

// Quote prices amount tokens through channel using the current rate. It is
// computed fresh on every call.
func (s *Synchronizer) Quote(ctx context.Context, amount decimal.Decimal, channel Channel) (Quote, error) {
	if !amount.IsPositive() {
		return Quote{}, walleterr.ErrInvalidAmount
	}
	feeRate, ok := s.fees[channel]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	return NewQuote(amount, channel, s.ExchangeRate(ctx), feeRate), nil
}

// NewQuote computes fiat = amount × rate and total = fiat × (1 + feeRate).
func NewQuote(amount decimal.Decimal, channel Channel, rate Rate, feeRate decimal.Decimal) Quote {
	fiat := amount.Mul(rate.Value)
	fee := fiat.Mul(feeRate)
	return Quote{
		Amount:     amount,
		Channel:    channel,
		Currency:   constants.FiatCurrency,
		Rate:       rate,
		FiatAmount: fiat,
		FeeRate:    feeRate,
		Fee:        fee,
		Total:      fiat.Add(fee),
	}
}
