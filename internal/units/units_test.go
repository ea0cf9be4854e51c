package units_test

import (
	"math/big"
	"testing"

	"github.com/nepalipay/nepalipay-web3/internal/units"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "100", want: "100"},
		{name: "fraction", input: "100.5", want: "100.5"},
		{name: "surrounding whitespace", input: "  42.25 ", want: "42.25"},
		{name: "smallest unit", input: "0.000000000000000001", want: "0.000000000000000001"},
		{name: "trailing zeros beyond precision", input: "1.50000000000000000000", want: "1.5"},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "NaN", input: "NaN", wantErr: true},
		{name: "infinity", input: "Infinity", wantErr: true},
		{name: "too many fractional digits", input: "0.0000000000000000001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := units.ParseAmount(tt.input, 18)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	got, err := units.ToBaseUnits(decimal.RequireFromString("100.5"), 18)
	require.NoError(t, err)

	want, ok := new(big.Int).SetString("100500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, 0, want.Cmp(got))

	_, err = units.ToBaseUnits(decimal.RequireFromString("0.1234567"), 6)
	assert.Error(t, err)
}

func TestToBaseUnits_Uint256Bound(t *testing.T) {
	maxWord := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	got, err := units.ToBaseUnits(decimal.NewFromBigInt(maxWord, -18), 18)
	require.NoError(t, err)
	assert.Equal(t, 0, maxWord.Cmp(got))

	overflow := new(big.Int).Add(maxWord, big.NewInt(1))
	_, err = units.ToBaseUnits(decimal.NewFromBigInt(overflow, -18), 18)
	assert.Error(t, err)

	huge, err := units.ParseAmount("1e60", 18)
	require.NoError(t, err)
	_, err = units.ToBaseUnits(huge, 18)
	assert.Error(t, err)
}

func TestScalingRoundTrip(t *testing.T) {
	amounts := []string{
		"1",
		"100.5",
		"0.1",
		"0.3",
		"123456789.123456789123456789",
		"0.000000000000000001",
		"99999999999999999999999.999999999999999999",
		"7.000000000000000007",
	}

	for _, a := range amounts {
		t.Run(a, func(t *testing.T) {
			amount, err := units.ParseAmount(a, 18)
			require.NoError(t, err)

			base, err := units.ToBaseUnits(amount, 18)
			require.NoError(t, err)

			back := units.FromBaseUnits(base, 18)
			assert.True(t, back.Equal(amount), "round trip of %s produced %s", a, back)
			assert.Equal(t, amount.String(), back.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	assert.True(t, units.FromBaseUnits(nil, 18).IsZero())
	assert.Equal(t, "1.2345", units.FromBaseUnits(big.NewInt(1234500000000000000), 18).String())
}

func TestFormat(t *testing.T) {
	amount := decimal.RequireFromString("1.999999")
	assert.Equal(t, "1.9999", units.Format(amount, 4))
	assert.Equal(t, "2", units.Format(decimal.RequireFromString("2.000"), 4))
}
