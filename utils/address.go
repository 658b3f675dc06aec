package utils

import (
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// ParseAddress 解析 TON 地址文本
//
// **格式**：
// - 用户友好格式（Base64 / Base64url，48 字符，带 CRC16 校验）
// - 原始格式 "workchain:hex"（64 个十六进制字符）
//
// **注意**：
// - 地址语法由 tonutils-go 负责，SDK 只做格式分派
func ParseAddress(addr string) (*address.Address, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}

	if strings.Contains(addr, ":") {
		a, err := address.ParseRawAddr(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid raw address %q: %w", addr, err)
		}
		return a, nil
	}

	a, err := address.ParseAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return a, nil
}

// MustParseAddress 解析地址，失败时 panic（仅用于常量 / 测试）
func MustParseAddress(addr string) *address.Address {
	a, err := ParseAddress(addr)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressToBytes 返回地址的 32 字节账户哈希
func AddressToBytes(addr string) ([]byte, error) {
	a, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	return a.Data(), nil
}

// RawAddress 将地址格式化为 "workchain:hex" 原始格式
func RawAddress(a *address.Address) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%d:%x", a.Workchain(), a.Data())
}
