// Package walleterr is the error taxonomy shared by the wallet, contract and
// transaction layers. Provider and RPC failures are translated into an *Error
// before they reach the notification layer so users never see raw library
// messages.
package walleterr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	WalletNotFound      Code = "wallet_not_found"
	UserRejected        Code = "user_rejected"
	WrongNetwork        Code = "wrong_network"
	ConnectionFailed    Code = "connection_failed"
	NotConnected        Code = "not_connected"
	InvalidAmount       Code = "invalid_amount"
	InvalidTarget       Code = "invalid_target"
	InsufficientBalance Code = "insufficient_balance"
	DuplicateInFlight   Code = "duplicate_in_flight"
	ContractCallFailed  Code = "contract_call_failed"
	TransactionReverted Code = "transaction_reverted"
	NetworkFetchFailed  Code = "network_fetch_failed"
	Unauthenticated     Code = "unauthenticated"
)

// Error is a translated, user-presentable failure. Message is safe to show;
// Err keeps the underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, walleterr.ErrNotConnected).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrWalletNotFound      = &Error{Code: WalletNotFound, Message: "No wallet extension detected. Install a wallet to continue."}
	ErrUserRejected        = &Error{Code: UserRejected, Message: "The request was rejected in your wallet."}
	ErrWrongNetwork        = &Error{Code: WrongNetwork, Message: "Your wallet is connected to an unsupported network."}
	ErrConnectionFailed    = &Error{Code: ConnectionFailed, Message: "Could not connect to your wallet."}
	ErrNotConnected        = &Error{Code: NotConnected, Message: "Wallet not connected."}
	ErrInvalidAmount       = &Error{Code: InvalidAmount, Message: "Enter a positive amount."}
	ErrInvalidTarget       = &Error{Code: InvalidTarget, Message: "Enter a valid recipient address."}
	ErrInsufficientBalance = &Error{Code: InsufficientBalance, Message: "You don't have enough tokens for this transaction."}
	ErrDuplicateInFlight   = &Error{Code: DuplicateInFlight, Message: "This action is already in progress."}
	ErrContractCallFailed  = &Error{Code: ContractCallFailed, Message: "The contract call could not be completed."}
	ErrTransactionReverted = &Error{Code: TransactionReverted, Message: "The transaction was reverted by the network."}
	ErrNetworkFetchFailed  = &Error{Code: NetworkFetchFailed, Message: "Could not fetch the latest data from the network."}
	ErrUnauthenticated     = &Error{Code: Unauthenticated, Message: "Your session has expired. Please sign in again."}
)

// New creates an *Error with a custom message.
func New(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap attaches a cause to a sentinel, keeping its code and message.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the user-presentable message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}
