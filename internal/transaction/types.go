package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
)

// Kind is a user action that results in one contract call.
type Kind string

const (
	KindTransfer          Kind = "transfer"
	KindApproveCollateral Kind = "approve_collateral"
	KindCreateLoan        Kind = "create_loan"
	KindRepayLoan         Kind = "repay_loan"
	KindClaimReward       Kind = "claim_reward"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindTransfer, KindApproveCollateral, KindCreateLoan, KindRepayLoan, KindClaimReward}

// Status is the lifecycle of a submitted transaction.
type Status string

const (
	StatusBuilding          Status = "building"
	StatusAwaitingSignature Status = "awaiting_signature"
	StatusSubmitted         Status = "submitted"
	StatusConfirmed         Status = "confirmed"
	StatusFailed            Status = "failed"
)

// Terminal reports whether no further transitions follow.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Request is a user-entered action. Amount is the human decimal string;
// Target is the recipient for transfers; LoanID is required for repayments.
type Request struct {
	Kind   Kind   `json:"kind" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Target string `json:"target,omitempty"`
	LoanID string `json:"loanId,omitempty"`
}

// PendingTransaction tracks one submission from validation to its outcome.
type PendingTransaction struct {
	ID           uuid.UUID       `json:"id"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Target       string          `json:"target,omitempty"`
	LoanID       string          `json:"loanId,omitempty"`
	Hash         string          `json:"hash,omitempty"`
	Status       Status          `json:"status"`
	ErrorCode    walleterr.Code  `json:"errorCode,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Estimate is the fee quote for a request. Relay and protocol fees are in
// tokens; NetworkFee is GasLimit × GasPriceGwei in the native currency.
type Estimate struct {
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	RelayFee     decimal.Decimal `json:"relayFee"`
	ProtocolFee  decimal.Decimal `json:"protocolFee"`
	GasLimit     uint64          `json:"gasLimit"`
	GasPriceGwei decimal.Decimal `json:"gasPriceGwei"`
	NetworkFee   decimal.Decimal `json:"networkFee"`
}
