package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// liteserverClient 基于 ADNL liteserver 的客户端实现
//
// **说明**：
// - Endpoint 为全局网络配置文件 URL（global.config.json）
// - 读请求由 tonutils-go 的 WithRetry 包装器重试
type liteserverClient struct {
	pool   *liteclient.ConnectionPool
	api    ton.APIClientWrapped
	logger Logger
	debug  bool
}

// NewLiteserverClient 创建 liteserver 客户端
func NewLiteserverClient(config *Config) (Client, error) {
	if config == nil || config.Endpoint == "" {
		return nil, fmt.Errorf("liteserver config url is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, config.Endpoint); err != nil {
		return nil, NewNetworkError(fmt.Errorf("connect liteservers from %s: %w", config.Endpoint, err))
	}

	if config.Logger != nil {
		config.Logger.Info("Connected to liteservers", "config", config.Endpoint)
	}

	return &liteserverClient{
		pool:   pool,
		api:    ton.NewAPIClient(pool).WithRetry(),
		logger: config.Logger,
		debug:  config.Debug,
	}, nil
}

// SendRawTransaction 广播已签名的外部消息
func (c *liteserverClient) SendRawTransaction(ctx context.Context, boc []byte) (*SendTxResult, error) {
	root, err := cell.FromBOC(boc)
	if err != nil {
		return nil, fmt.Errorf("parse BoC failed: %w", err)
	}

	var msg tlb.ExternalMessage
	if err := tlb.LoadFromCell(&msg, root.BeginParse()); err != nil {
		return nil, fmt.Errorf("decode external message failed: %w", err)
	}

	result := &SendTxResult{TxHash: hex.EncodeToString(root.Hash())}
	if err := c.api.SendExternalMessage(ctx, &msg); err != nil {
		var lsErr ton.LSError
		if !errors.As(err, &lsErr) {
			if ctx.Err() != nil {
				return nil, NewTimeoutError()
			}
			return nil, NewNetworkError(fmt.Errorf("send external message failed: %w", err))
		}
		if c.logger != nil {
			c.logger.Warn("External message rejected", "hash", result.TxHash, "error", err)
		}
		result.Reason = err.Error()
		return result, nil
	}

	result.Accepted = true
	return result, nil
}

// GetAccountState 查询账户状态
func (c *liteserverClient) GetAccountState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	acc, err := c.getAccount(ctx, addr)
	if err != nil {
		return nil, err
	}

	state := &AccountState{
		Status:     AccountStatusUninitialized,
		Balance:    new(big.Int),
		LastTxLT:   acc.LastTxLT,
		LastTxHash: acc.LastTxHash,
	}
	if acc.State != nil {
		state.Balance = acc.State.Balance.Nano()
		switch acc.State.Status {
		case tlb.AccountStatusActive:
			state.Status = AccountStatusActive
		case tlb.AccountStatusFrozen:
			state.Status = AccountStatusFrozen
		}
	}
	return state, nil
}

// GetSeqno 查询钱包 seqno
func (c *liteserverClient) GetSeqno(ctx context.Context, addr *address.Address) (uint32, error) {
	acc, err := c.getAccount(ctx, addr)
	if err != nil {
		return 0, err
	}
	if !acc.IsActive {
		return 0, nil
	}

	res, err := c.RunGetMethod(ctx, addr, "seqno")
	if err != nil {
		return 0, err
	}
	seqno, err := res.Int(0)
	if err != nil {
		return 0, fmt.Errorf("decode seqno failed: %w", err)
	}
	return uint32(seqno.Uint64()), nil
}

// RunGetMethod 调用合约 get 方法
func (c *liteserverClient) RunGetMethod(ctx context.Context, addr *address.Address, method string, params ...*big.Int) (*GetMethodResult, error) {
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("get masterchain info: %w", err))
	}

	args := make([]any, 0, len(params))
	for _, p := range params {
		args = append(args, p)
	}

	res, err := c.api.RunGetMethod(ctx, block, addr, method, args...)
	if err != nil {
		var execErr ton.ContractExecError
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("get method %s exited with code %d", method, execErr.Code)
		}
		return nil, fmt.Errorf("run get method %s failed: %w", method, err)
	}

	return &GetMethodResult{Stack: res.AsTuple()}, nil
}

// LookupTransaction 查找外部入站消息体哈希匹配的交易
func (c *liteserverClient) LookupTransaction(ctx context.Context, addr *address.Address, bodyHash []byte) (*TransactionRecord, error) {
	acc, err := c.getAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acc.LastTxLT == 0 {
		return nil, ErrTransactionNotFound
	}

	txs, err := c.api.ListTransactions(ctx, addr, lookupTxLimit, acc.LastTxLT, acc.LastTxHash)
	if err != nil {
		if errors.Is(err, ton.ErrNoTransactionsWereFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, NewNetworkError(fmt.Errorf("list transactions: %w", err))
	}

	for _, tx := range txs {
		if tx.IO.In == nil || tx.IO.In.MsgType != tlb.MsgTypeExternalIn {
			continue
		}
		in := tx.IO.In.AsExternalIn()
		if in.Body == nil || !bytes.Equal(in.Body.Hash(), bodyHash) {
			continue
		}

		return &TransactionRecord{
			Hash:          tx.Hash,
			LT:            tx.LT,
			Time:          time.Unix(int64(tx.Now), 0).UTC(),
			Fee:           tx.TotalFees.Coins.Nano(),
			InMsgBodyHash: in.Body.Hash(),
		}, nil
	}

	return nil, ErrTransactionNotFound
}

// Close 关闭连接
func (c *liteserverClient) Close() error {
	c.pool.Stop()
	return nil
}

func (c *liteserverClient) getAccount(ctx context.Context, addr *address.Address) (*tlb.Account, error) {
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("get masterchain info: %w", err))
	}

	acc, err := c.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("get account %s: %w", addr.String(), err))
	}
	if c.debug && c.logger != nil {
		c.logger.Debug("Account fetched", "address", addr.String(), "active", acc.IsActive)
	}
	return acc, nil
}
