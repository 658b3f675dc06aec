package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/types"
	"github.com/faeton/treasury-sdk-go/wallet"
)

const testTreasury = "EQD4FPq-PRDieyQKkizFTRtSDyucUIqrj0v_zXJmqaDp6_0t"

// clearEnv 清空相关环境变量，避免宿主环境影响测试
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TREASURY_ADDRESS", testTreasury)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, testTreasury, cfg.TreasuryAddress)
	assert.Equal(t, NetworkTestnet, cfg.Network)
	assert.Equal(t, "toncenter", cfg.Protocol)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "0.1", cfg.Gas)
	assert.Equal(t, 10, cfg.Confirm.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Confirm.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate(false))

	cc := cfg.ClientConfig(nil)
	assert.Equal(t, "https://testnet.toncenter.com/api/v2/jsonRPC", cc.Endpoint)
	assert.Equal(t, client.ProtocolToncenter, cc.Protocol)
	assert.Equal(t, 30, cc.Timeout)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	mnemonic := wallet.NewMnemonic()
	t.Setenv("TREASURY_ADDRESS", testTreasury)
	t.Setenv("NETWORK", "MAINNET")
	t.Setenv("MNEMONIC", "  "+strings.ReplaceAll(mnemonic, " ", "   ")+"\n")
	t.Setenv("TONCENTER_API_KEY", "key")
	t.Setenv("TREASURY_PROTOCOL", "liteserver")
	t.Setenv("TREASURY_TIMEOUT", "45s")
	t.Setenv("TREASURY_GAS", "0.25")
	t.Setenv("TREASURY_CONFIRM_ATTEMPTS", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(true))

	assert.Equal(t, NetworkMainnet, cfg.Network)
	assert.Equal(t, mnemonic, cfg.Mnemonic)
	assert.Equal(t, 5, cfg.Confirm.Attempts)

	cc := cfg.ClientConfig(nil)
	assert.Equal(t, "https://ton.org/global.config.json", cc.Endpoint)
	assert.Equal(t, client.ProtocolLiteserver, cc.Protocol)
	assert.Equal(t, "key", cc.APIKey)
	assert.Equal(t, 45, cc.Timeout)
	assert.True(t, cc.Debug)

	sc, err := cfg.ServicesConfig()
	require.NoError(t, err)
	assert.Equal(t, "250000000", sc.GasAmount.String())
	assert.Equal(t, 5, sc.Confirm.MaxAttempts)
	assert.Equal(t, 2000, sc.Confirm.IntervalMs)

	w, err := cfg.LoadWallet()
	require.NoError(t, err)
	assert.NotNil(t, w.Address())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "treasury.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
treasury_address: `+testTreasury+`
network: mainnet
endpoint: https://example.org/jsonRPC
gas: "0.05"
log:
  level: warn
  format: json
`), 0600))

	// 环境变量优先于文件
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, NetworkMainnet, cfg.Network)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://example.org/jsonRPC", cfg.ClientConfig(nil).Endpoint)

	gas, err := cfg.GasAmount()
	require.NoError(t, err)
	assert.Equal(t, "50000000", gas.String())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TreasuryAddress: testTreasury,
			Network:         NetworkTestnet,
			Protocol:        "toncenter",
			Timeout:         time.Second,
			Gas:             "0.1",
			Confirm:         ConfirmConfig{Attempts: 10, Interval: 2 * time.Second},
		}
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		requireSigner bool
		wantErr       bool
	}{
		{name: "valid read-only", mutate: func(*Config) {}},
		{name: "missing treasury", mutate: func(c *Config) { c.TreasuryAddress = "" }, wantErr: true},
		{name: "bad treasury", mutate: func(c *Config) { c.TreasuryAddress = "nope" }, wantErr: true},
		{name: "bad network", mutate: func(c *Config) { c.Network = "devnet" }, wantErr: true},
		{name: "bad protocol", mutate: func(c *Config) { c.Protocol = "grpc" }, wantErr: true},
		{name: "bad gas", mutate: func(c *Config) { c.Gas = "0" }, wantErr: true},
		{name: "signer missing", mutate: func(*Config) {}, requireSigner: true, wantErr: true},
		{name: "short mnemonic", mutate: func(c *Config) { c.Mnemonic = "a b c" }, requireSigner: true, wantErr: true},
		{name: "missing keystore file", mutate: func(c *Config) { c.Keystore = "/nonexistent.json" }, requireSigner: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate(tt.requireSigner)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}

	cfg := valid()
	cfg.TreasuryAddress = "nope"
	assert.True(t, types.HasCode(cfg.Validate(false), types.ErrorCodeInvalidAddress))
}

func TestLoadWallet_Keystore(t *testing.T) {
	km, err := wallet.NewKeystoreManager(t.TempDir())
	require.NoError(t, err)
	mnemonic := wallet.NewMnemonic()
	path, err := km.Save(mnemonic, "pw")
	require.NoError(t, err)

	cfg := &Config{Keystore: path, KeystorePassword: "pw"}
	w, err := cfg.LoadWallet()
	require.NoError(t, err)

	direct, err := wallet.NewWalletFromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.True(t, w.Address().Equals(direct.Address()))

	cfg.KeystorePassword = "wrong"
	_, err = cfg.LoadWallet()
	assert.ErrorIs(t, err, wallet.ErrInvalidPassword)
}
