package utils

import (
	"fmt"
	"math/big"
	"strings"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// TONDecimals TON 最小单位（nano）的小数位数
const TONDecimals = 9

// ParseTON 将十进制 TON 数量转换为 nano 整数
//
// **规则**：
// - 接受 "1"、"1.0"、"0.000000001" 等十进制字符串
// - 小数位超过 9 位时返回错误（无法精确表示为 nano）
// - 负数允许解析，由调用方决定是否接受
func ParseTON(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	nano := d.Shift(TONDecimals)
	if !nano.Equal(nano.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, TONDecimals)
	}
	return nano.BigInt(), nil
}

// MustParseTON 转换 TON 数量，失败时 panic（仅用于常量）
func MustParseTON(amount string) *big.Int {
	v, err := ParseTON(amount)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatTON 将 nano 整数格式化为 TON 十进制字符串
func FormatTON(nano *big.Int) string {
	if nano == nil {
		return "0"
	}
	return decimal.NewFromBigInt(nano, -TONDecimals).String()
}

// ParseUint256 解析十进制或 0x 前缀十六进制的 256 位无符号整数
func ParseUint256(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer")
	}
	v, ok := ethmath.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("invalid 256-bit integer %q", s)
	}
	return v, nil
}
