// Package config loads the runtime configuration of the treasury tools
// from environment variables and an optional treasury.yaml file.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/services"
	"github.com/faeton/treasury-sdk-go/types"
	"github.com/faeton/treasury-sdk-go/utils"
	"github.com/faeton/treasury-sdk-go/wallet"
)

// Network names.
const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
)

// NetworkInfo holds the public endpoints of a TON network.
type NetworkInfo struct {
	Name                string
	ToncenterURL        string
	LiteserverConfigURL string
}

// Networks lists the supported networks.
var Networks = map[string]NetworkInfo{
	NetworkTestnet: {
		Name:                NetworkTestnet,
		ToncenterURL:        "https://testnet.toncenter.com/api/v2/jsonRPC",
		LiteserverConfigURL: "https://ton-blockchain.github.io/testnet-global.config.json",
	},
	NetworkMainnet: {
		Name:                NetworkMainnet,
		ToncenterURL:        "https://toncenter.com/api/v2/jsonRPC",
		LiteserverConfigURL: "https://ton.org/global.config.json",
	},
}

// Config holds all runtime configuration.
type Config struct {
	TreasuryAddress  string        `mapstructure:"treasury_address"`
	Network          string        `mapstructure:"network"`
	Mnemonic         string        `mapstructure:"mnemonic"`
	Keystore         string        `mapstructure:"keystore"`
	KeystorePassword string        `mapstructure:"keystore_password"`
	APIKey           string        `mapstructure:"toncenter_api_key"`
	Protocol         string        `mapstructure:"protocol"`
	Endpoint         string        `mapstructure:"endpoint"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Gas              string        `mapstructure:"gas"`
	Confirm          ConfirmConfig `mapstructure:"confirm"`
	Log              LogConfig     `mapstructure:"log"`
}

// ConfirmConfig holds transaction confirmation polling settings.
type ConfirmConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"treasury_address":  "TREASURY_ADDRESS",
	"network":           "NETWORK",
	"mnemonic":          "MNEMONIC",
	"keystore":          "TREASURY_KEYSTORE",
	"keystore_password": "TREASURY_KEYSTORE_PASSWORD",
	"toncenter_api_key": "TONCENTER_API_KEY",
	"protocol":          "TREASURY_PROTOCOL",
	"endpoint":          "TREASURY_ENDPOINT",
	"timeout":           "TREASURY_TIMEOUT",
	"gas":               "TREASURY_GAS",
	"confirm.attempts":  "TREASURY_CONFIRM_ATTEMPTS",
	"confirm.interval":  "TREASURY_CONFIRM_INTERVAL",
	"log.level":         "LOG_LEVEL",
	"log.format":        "LOG_FORMAT",
	"log.file":          "LOG_FILE",
}

// Load reads configuration from the given file (or treasury.yaml in the
// working directory when path is empty) and environment variables.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("treasury")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	cfg.Protocol = strings.ToLower(strings.TrimSpace(cfg.Protocol))
	cfg.Mnemonic = strings.Join(strings.Fields(cfg.Mnemonic), " ")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", NetworkTestnet)
	v.SetDefault("protocol", string(client.ProtocolToncenter))
	v.SetDefault("timeout", "30s")
	v.SetDefault("gas", "0.1")
	v.SetDefault("confirm.attempts", services.DefaultConfirmAttempts)
	v.SetDefault("confirm.interval", "2s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks the configuration once at startup.
// Signer settings are only checked when requireSigner is set.
func (c *Config) Validate(requireSigner bool) error {
	if c.TreasuryAddress == "" {
		return fmt.Errorf("TREASURY_ADDRESS is required")
	}
	if _, err := utils.ParseAddress(c.TreasuryAddress); err != nil {
		return types.WrapTreasuryError(types.ErrorCodeInvalidAddress, "Invalid treasury address", err)
	}
	if _, ok := Networks[c.Network]; !ok {
		return fmt.Errorf("unsupported network %q (must be testnet or mainnet)", c.Network)
	}
	switch client.Protocol(c.Protocol) {
	case client.ProtocolToncenter, client.ProtocolLiteserver:
	default:
		return fmt.Errorf("unsupported protocol %q (must be toncenter or liteserver)", c.Protocol)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if _, err := c.GasAmount(); err != nil {
		return err
	}
	if c.Confirm.Attempts <= 0 || c.Confirm.Interval <= 0 {
		return fmt.Errorf("confirmation attempts and interval must be positive")
	}

	if !requireSigner {
		return nil
	}
	if c.Mnemonic == "" && c.Keystore == "" {
		return fmt.Errorf("MNEMONIC or TREASURY_KEYSTORE is required")
	}
	if c.Mnemonic != "" {
		if n := len(strings.Fields(c.Mnemonic)); n != wallet.MnemonicWords {
			return fmt.Errorf("MNEMONIC must have %d words, got %d", wallet.MnemonicWords, n)
		}
	} else if _, err := os.Stat(c.Keystore); err != nil {
		return fmt.Errorf("keystore %s: %w", c.Keystore, err)
	}
	return nil
}

// NetworkInfo returns the endpoints of the configured network.
func (c *Config) NetworkInfo() NetworkInfo {
	if n, ok := Networks[c.Network]; ok {
		return n
	}
	return Networks[NetworkTestnet]
}

// TreasuryAddr parses the treasury address.
func (c *Config) TreasuryAddr() (*address.Address, error) {
	addr, err := utils.ParseAddress(c.TreasuryAddress)
	if err != nil {
		return nil, types.WrapTreasuryError(types.ErrorCodeInvalidAddress, "Invalid treasury address", err)
	}
	return addr, nil
}

// GasAmount returns the gas value attached to plain calls, in nano.
func (c *Config) GasAmount() (*big.Int, error) {
	gas, err := utils.ParseTON(c.Gas)
	if err != nil || gas.Sign() <= 0 {
		return nil, fmt.Errorf("invalid gas amount %q", c.Gas)
	}
	return gas, nil
}

// ClientConfig builds the transport configuration.
// An explicit endpoint overrides the network default.
func (c *Config) ClientConfig(logger client.Logger) *client.Config {
	protocol := client.Protocol(c.Protocol)
	endpoint := c.Endpoint
	if endpoint == "" {
		info := c.NetworkInfo()
		endpoint = info.ToncenterURL
		if protocol == client.ProtocolLiteserver {
			endpoint = info.LiteserverConfigURL
		}
	}

	return &client.Config{
		Endpoint: endpoint,
		Protocol: protocol,
		APIKey:   c.APIKey,
		Timeout:  int(c.Timeout / time.Second),
		Debug:    strings.EqualFold(c.Log.Level, "debug"),
		Logger:   logger,
	}
}

// ServicesConfig builds the business service configuration.
func (c *Config) ServicesConfig() (*services.Config, error) {
	treasury, err := c.TreasuryAddr()
	if err != nil {
		return nil, err
	}
	gas, err := c.GasAmount()
	if err != nil {
		return nil, err
	}
	return &services.Config{
		TreasuryAddress: treasury,
		GasAmount:       gas,
		Confirm: services.ConfirmConfig{
			MaxAttempts: c.Confirm.Attempts,
			IntervalMs:  int(c.Confirm.Interval / time.Millisecond),
		},
	}, nil
}

// LoadWallet derives the signing wallet from the mnemonic, or from the
// encrypted keystore when no mnemonic is set.
func (c *Config) LoadWallet() (*wallet.V4R2Wallet, error) {
	mnemonic := c.Mnemonic
	if mnemonic == "" {
		if c.Keystore == "" {
			return nil, fmt.Errorf("MNEMONIC or TREASURY_KEYSTORE is required")
		}
		m, err := wallet.LoadKeystoreFile(c.Keystore, c.KeystorePassword)
		if err != nil {
			return nil, fmt.Errorf("load keystore: %w", err)
		}
		mnemonic = m
	}
	return wallet.NewWalletFromMnemonic(mnemonic)
}
