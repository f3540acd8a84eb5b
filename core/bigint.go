package core

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// NativeDecimals 链上原生币的精度
const NativeDecimals = 18

// FormatUnits 把最小单位的 amount 按精度转成可读的小数，
// 比如精度是 18，输入 amount 1e18，输出 "1"
func FormatUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}
