package transaction

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/units"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
)

// call is one contract invocation: where it goes, its calldata and how to
// send it through the signer.
type call struct {
	contract common.Address
	data     []byte
	send     func(ctx context.Context) (*contracts.SentTx, error)
}

func validate(req Request) (input, error) {
	in := input{kind: req.Kind}
	if !knownKind(req.Kind) {
		return input{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	amount, err := units.ParseAmount(req.Amount, constants.TokenDecimals)
	if err != nil {
		return input{}, walleterr.Wrap(walleterr.ErrInvalidAmount, err)
	}
	base, err := units.ToBaseUnits(amount, constants.TokenDecimals)
	if err != nil {
		return input{}, walleterr.Wrap(walleterr.ErrInvalidAmount, err)
	}
	in.amount = amount
	in.baseUnits = base

	switch req.Kind {
	case KindTransfer:
		target := strings.TrimSpace(req.Target)
		if !common.IsHexAddress(target) {
			return input{}, walleterr.ErrInvalidTarget
		}
		in.target = common.HexToAddress(target)
		if in.target == (common.Address{}) {
			return input{}, walleterr.ErrInvalidTarget
		}
	case KindRepayLoan:
		loanID, ok := new(big.Int).SetString(strings.TrimSpace(req.LoanID), 10)
		if !ok || loanID.Sign() < 0 {
			return input{}, walleterr.New(walleterr.InvalidTarget, "Enter a valid loan ID.", nil)
		}
		in.loanID = loanID
	}
	return in, nil
}

func knownKind(kind Kind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func buildCall(b *contracts.Bindings, in input) (call, error) {
	var (
		method string
		args   []interface{}
	)

	switch in.kind {
	case KindTransfer:
		data, err := b.Token.Pack("transfer", in.target, in.baseUnits)
		if err != nil {
			return call{}, err
		}
		return call{
			contract: b.Token.Address(),
			data:     data,
			send: func(ctx context.Context) (*contracts.SentTx, error) {
				return b.Token.Transfer(ctx, in.target, in.baseUnits)
			},
		}, nil

	case KindApproveCollateral:
		spender := b.Payment.Address()
		data, err := b.Token.Pack("approve", spender, in.baseUnits)
		if err != nil {
			return call{}, err
		}
		return call{
			contract: b.Token.Address(),
			data:     data,
			send: func(ctx context.Context) (*contracts.SentTx, error) {
				return b.Token.Approve(ctx, spender, in.baseUnits)
			},
		}, nil

	case KindCreateLoan:
		method, args = "createLoan", []interface{}{in.baseUnits}
	case KindRepayLoan:
		method, args = "repayLoan", []interface{}{in.loanID, in.baseUnits}
	case KindClaimReward:
		method, args = "claimReward", []interface{}{in.baseUnits}
	default:
		return call{}, fmt.Errorf("%w: %q", ErrUnknownKind, in.kind)
	}

	data, err := b.Payment.Pack(method, args...)
	if err != nil {
		return call{}, err
	}
	return call{
		contract: b.Payment.Address(),
		data:     data,
		send: func(ctx context.Context) (*contracts.SentTx, error) {
			switch in.kind {
			case KindCreateLoan:
				return b.Payment.CreateLoan(ctx, in.baseUnits)
			case KindRepayLoan:
				return b.Payment.RepayLoan(ctx, in.loanID, in.baseUnits)
			default:
				return b.Payment.ClaimReward(ctx, in.baseUnits)
			}
		},
	}, nil
}
