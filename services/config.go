package services

import (
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
)

// Config 统一的业务服务配置结构，为各个具体 Service 提供合约地址、附带金额等运行时参数。
//
// **说明**：
// - TreasuryAddress 必填，其余字段为可选，未提供时使用默认值
// - 金额字段统一使用 nano（1 TON = 10^9 nano）
type Config struct {
	// Treasury 合约地址
	TreasuryAddress *address.Address

	// 普通调用附带的 gas 金额（默认 0.1 TON）
	GasAmount *big.Int

	// enter_paid 默认附带的入场费（默认 1 TON）
	DefaultEntryFee *big.Int

	// 确认轮询配置
	Confirm ConfirmConfig
}

// ConfirmConfig 交易确认轮询配置
type ConfirmConfig struct {
	// 最大尝试次数（默认 10）
	MaxAttempts int

	// 轮询间隔毫秒数（默认 2000）
	IntervalMs int
}

// 默认值
const (
	DefaultConfirmAttempts   = 10
	DefaultConfirmIntervalMs = 2000
)

// DefaultGasAmount 默认 gas 金额：0.1 TON
func DefaultGasAmount() *big.Int {
	return big.NewInt(100_000_000)
}

// DefaultEntryFee 默认入场费：1 TON
func DefaultEntryFee() *big.Int {
	return big.NewInt(1_000_000_000)
}

// WithDefaults 返回填充默认值后的配置副本
func (c *Config) WithDefaults() *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if out.GasAmount == nil {
		out.GasAmount = DefaultGasAmount()
	}
	if out.DefaultEntryFee == nil {
		out.DefaultEntryFee = DefaultEntryFee()
	}
	if out.Confirm.MaxAttempts <= 0 {
		out.Confirm.MaxAttempts = DefaultConfirmAttempts
	}
	if out.Confirm.IntervalMs <= 0 {
		out.Confirm.IntervalMs = DefaultConfirmIntervalMs
	}
	return out
}

// Interval 轮询间隔
func (c ConfirmConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}
