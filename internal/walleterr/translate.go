package walleterr

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
)

const revertPrefix = "execution reverted: "

var sentinels = map[Code]*Error{
	WalletNotFound:      ErrWalletNotFound,
	UserRejected:        ErrUserRejected,
	WrongNetwork:        ErrWrongNetwork,
	ConnectionFailed:    ErrConnectionFailed,
	NotConnected:        ErrNotConnected,
	InvalidAmount:       ErrInvalidAmount,
	InvalidTarget:       ErrInvalidTarget,
	InsufficientBalance: ErrInsufficientBalance,
	DuplicateInFlight:   ErrDuplicateInFlight,
	ContractCallFailed:  ErrContractCallFailed,
	TransactionReverted: ErrTransactionReverted,
	NetworkFetchFailed:  ErrNetworkFetchFailed,
	Unauthenticated:     ErrUnauthenticated,
}

// Translate converts a wallet, RPC or contract error into an *Error. Errors
// that are already translated pass through. Anything unrecognised becomes
// fallback with that code's generic message.
func Translate(err error, fallback Code) *Error {
	if err == nil {
		return nil
	}

	var translated *Error
	if errors.As(err, &translated) {
		return translated
	}

	if IsUserRejection(err) {
		return Wrap(ErrUserRejected, err)
	}

	if ProviderCode(err) == constants.ErrCodeUnauthorized {
		return Wrap(ErrNotConnected, err)
	}

	if reason, ok := RevertReason(err); ok {
		return New(fallback, "Transaction reverted: "+reason, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(fallback, "The network did not respond in time.", err)
	}

	if sentinel, ok := sentinels[fallback]; ok {
		return Wrap(sentinel, err)
	}
	return New(fallback, "Something went wrong. Please try again.", err)
}

// IsUserRejection reports whether err is a wallet prompt the user declined.
func IsUserRejection(err error) bool {
	if ProviderCode(err) == constants.ErrCodeUserRejected {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

// ProviderCode returns the EIP-1193 / JSON-RPC error code carried by err, or 0.
func ProviderCode(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}

// RevertReason extracts a Solidity revert string from err, looking first at
// ABI-encoded revert data and then at the node's message text.
func RevertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil && reason != "" {
					return reason, true
				}
			}
		}
	}

	msg := err.Error()
	if idx := strings.Index(msg, revertPrefix); idx >= 0 {
		reason := strings.TrimSpace(msg[idx+len(revertPrefix):])
		if reason != "" {
			return reason, true
		}
	}
	return "", false
}
