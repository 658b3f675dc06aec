package transaction

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/wallet"
)

// 默认确认轮询参数
const (
	DefaultMaxAttempts = 10
	DefaultInterval    = 2000 * time.Millisecond
)

// Service Transaction 业务服务接口
type Service interface {
	// SubmitTransaction 提交已签名的外部消息
	SubmitTransaction(ctx context.Context, from *address.Address, msg *wallet.SignedMessage) (*SubmitTxResult, error)

	// GetTransaction 查询一次交易（未上链时返回 client.ErrTransactionNotFound）
	GetTransaction(ctx context.Context, handle *Handle) (*TransactionInfo, error)

	// WaitForTransaction 轮询等待交易上链
	WaitForTransaction(ctx context.Context, handle *Handle, opts *WaitOptions) (*TransactionInfo, error)
}

// transactionService Transaction 服务实现
type transactionService struct {
	client client.Client
	logger client.Logger
}

// NewService 创建 Transaction 服务
func NewService(c client.Client) Service {
	return &transactionService{
		client: c,
	}
}

// NewServiceWithLogger 创建带日志的 Transaction 服务
func NewServiceWithLogger(c client.Client, logger client.Logger) Service {
	return &transactionService{
		client: c,
		logger: logger,
	}
}

// Handle 已提交交易的查询句柄
//
// 外部消息在发送钱包上产生交易，通过入站消息体哈希匹配。
type Handle struct {
	// Wallet 发送钱包地址
	Wallet *address.Address
	// MessageHash 外部消息哈希（十六进制）
	MessageHash string
	// BodyHash 外部消息体哈希
	BodyHash []byte
}

// String 返回用于展示的哈希
func (h *Handle) String() string {
	if h == nil {
		return ""
	}
	return h.MessageHash
}

// WaitOptions 轮询参数
type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultWaitOptions 默认轮询参数：10 次，每次间隔 2 秒
func DefaultWaitOptions() *WaitOptions {
	return &WaitOptions{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
	}
}

// TransactionInfo 交易信息
type TransactionInfo struct {
	TxID      string   // 交易哈希（十六进制）
	LT        uint64   // 逻辑时间
	Status    string   // "confirmed"
	Fee       *big.Int // nano
	Timestamp time.Time
}

// SubmitTxResult 交易提交结果
type SubmitTxResult struct {
	Handle   *Handle
	Accepted bool
	Reason   string
}

// SubmitTransaction 提交交易
func (s *transactionService) SubmitTransaction(ctx context.Context, from *address.Address, msg *wallet.SignedMessage) (*SubmitTxResult, error) {
	if from == nil || msg == nil {
		return nil, fmt.Errorf("sender and signed message are required")
	}

	result, err := s.client.SendRawTransaction(ctx, msg.BoC)
	if err != nil {
		return nil, fmt.Errorf("send raw transaction failed: %w", err)
	}

	messageHash := result.TxHash
	if messageHash == "" {
		messageHash = hex.EncodeToString(msg.MessageHash)
	}

	return &SubmitTxResult{
		Handle: &Handle{
			Wallet:      from,
			MessageHash: messageHash,
			BodyHash:    msg.BodyHash,
		},
		Accepted: result.Accepted,
		Reason:   result.Reason,
	}, nil
}

// ErrInvalidHandle 句柄缺少发送钱包或消息体哈希
var ErrInvalidHandle = errors.New("invalid transaction handle")

func (h *Handle) valid() bool {
	return h != nil && h.Wallet != nil && len(h.BodyHash) > 0
}

// GetTransaction 获取交易信息
func (s *transactionService) GetTransaction(ctx context.Context, handle *Handle) (*TransactionInfo, error) {
	if !handle.valid() {
		return nil, ErrInvalidHandle
	}

	rec, err := s.client.LookupTransaction(ctx, handle.Wallet, handle.BodyHash)
	if err != nil {
		return nil, err
	}

	return &TransactionInfo{
		TxID:      hex.EncodeToString(rec.Hash),
		LT:        rec.LT,
		Status:    "confirmed",
		Fee:       rec.Fee,
		Timestamp: rec.Time,
	}, nil
}

// WaitForTransaction 等待交易确认
//
// **流程**：
// 1. 按固定间隔查询发送钱包的最近交易（无抖动、无指数退避）
// 2. 找到匹配交易立即返回
// 3. 最后一次尝试仍未找到时返回超时错误（client.ErrCodeTimeout）
//
// ctx 取消时立即返回 ctx.Err()。
func (s *transactionService) WaitForTransaction(ctx context.Context, handle *Handle, opts *WaitOptions) (*TransactionInfo, error) {
	if !handle.valid() {
		return nil, ErrInvalidHandle
	}
	if opts == nil {
		opts = DefaultWaitOptions()
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var info *TransactionInfo
	retry := client.FixedIntervalConfig(attempts, opts.Interval)
	retry.OnRetry = func(attempt int, err error) {
		if s.logger != nil {
			s.logger.Debug("Transaction not confirmed yet", "hash", handle.String(), "attempt", attempt, "error", err)
		}
	}

	err := client.WithRetry(ctx, func(int) error {
		tx, err := s.GetTransaction(ctx, handle)
		if err != nil {
			return err
		}
		info = tx
		return nil
	}, retry)
	if err == nil {
		return info, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil, ctxErr
	}
	return nil, client.NewConfirmTimeoutError(attempts, err)
}
