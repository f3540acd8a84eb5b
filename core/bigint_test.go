package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUnits(t *testing.T) {
	e18, _ := new(big.Int).SetString("1000000000000000000", 10)
	half, _ := new(big.Int).SetString("1500000000000000000", 10)

	for _, tc := range []struct {
		uc       string
		amount   *big.Int
		decimals int32
		exp      string
	}{
		{uc: "zero", amount: big.NewInt(0), decimals: NativeDecimals, exp: "0"},
		{uc: "one native", amount: e18, decimals: NativeDecimals, exp: "1"},
		{uc: "fraction", amount: half, decimals: NativeDecimals, exp: "1.5"},
		{uc: "six decimals", amount: big.NewInt(2500000), decimals: 6, exp: "2.5"},
		{uc: "no decimals", amount: big.NewInt(42), decimals: 0, exp: "42"},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			assert.Equal(t, tc.exp, FormatUnits(tc.amount, tc.decimals))
		})
	}
}
