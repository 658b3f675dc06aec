package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/config"
	"github.com/faeton/treasury-sdk-go/wallet"
)

const (
	// EnvEnable 设置为 1 时运行 testnet 集成测试
	EnvEnable = "TREASURY_INTEGRATION"
	// EnvSend 设置为 1 时允许集成测试发送交易（消耗 testnet TON）
	EnvSend = "TREASURY_INTEGRATION_SEND"

	// DefaultTimeout 默认请求超时时间
	DefaultTimeout = 30 * time.Second
)

// EnsureNetwork 未开启集成测试时跳过
func EnsureNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvEnable) != "1" {
		t.Skipf("set %s=1 to run testnet integration tests", EnvEnable)
	}
}

// EnsureSending 未允许发送交易时跳过
func EnsureSending(t *testing.T) {
	t.Helper()
	EnsureNetwork(t)
	if os.Getenv(EnvSend) != "1" {
		t.Skipf("set %s=1 to send testnet transactions", EnvSend)
	}
}

// LoadTestConfig 从环境变量 / treasury.yaml 加载配置，强制使用 testnet
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err, "加载配置失败")
	require.Equal(t, config.NetworkTestnet, cfg.Network, "集成测试只允许在 testnet 上运行")
	return cfg
}

// SetupTestClient 创建客户端并确认网络可达
func SetupTestClient(t *testing.T, cfg *config.Config) client.Client {
	t.Helper()

	c, err := client.NewClient(cfg.ClientConfig(nil))
	require.NoError(t, err, "创建客户端失败")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	addr, err := cfg.TreasuryAddr()
	require.NoError(t, err)
	_, err = c.GetAccountState(ctx, addr)
	require.NoError(t, err, "网络不可达: %s", cfg.ClientConfig(nil).Endpoint)

	return c
}

// TeardownTestClient 关闭客户端
func TeardownTestClient(t *testing.T, c client.Client) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		t.Logf("关闭客户端时出现警告: %v", err)
	}
}

// LoadTestWallet 加载配置中的签名钱包
func LoadTestWallet(t *testing.T, cfg *config.Config) *wallet.V4R2Wallet {
	t.Helper()
	require.NoError(t, cfg.Validate(true), "签名配置无效")
	w, err := cfg.LoadWallet()
	require.NoError(t, err, "加载钱包失败")
	return w
}

// TreasuryAddress 返回配置的 Treasury 地址
func TreasuryAddress(t *testing.T, cfg *config.Config) *address.Address {
	t.Helper()
	addr, err := cfg.TreasuryAddr()
	require.NoError(t, err)
	return addr
}
