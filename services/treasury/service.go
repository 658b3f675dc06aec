package treasury

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/services"
	"github.com/faeton/treasury-sdk-go/services/transaction"
	"github.com/faeton/treasury-sdk-go/wallet"
)

// Service Treasury 业务服务接口
type Service interface {
	// OpenRoom 开启付费房间
	// wallet 参数可选：如果提供则使用，否则使用服务实例的默认 Wallet
	OpenRoom(ctx context.Context, op *OpenRoom, wallets ...wallet.Wallet) (*SendResult, error)

	// EnterPaid 进入付费房间（附带入场费）
	EnterPaid(ctx context.Context, op *EnterPaid, wallets ...wallet.Wallet) (*SendResult, error)

	// CloseRoom 关闭房间
	CloseRoom(ctx context.Context, op *CloseRoom, wallets ...wallet.Wallet) (*SendResult, error)

	// PayoutPaid 付费房间派奖
	PayoutPaid(ctx context.Context, op *PayoutPaid, wallets ...wallet.Wallet) (*SendResult, error)

	// PayoutAirdrop 空投派奖
	PayoutAirdrop(ctx context.Context, op *PayoutAirdrop, wallets ...wallet.Wallet) (*SendResult, error)

	// Upgrade 升级合约代码
	Upgrade(ctx context.Context, op *Upgrade, wallets ...wallet.Wallet) (*SendResult, error)

	// FundAirdrop 向空投池注资
	FundAirdrop(ctx context.Context, op *FundAirdrop, wallets ...wallet.Wallet) (*SendResult, error)

	// Prepare 校验并编码操作（不签名、不访问网络）
	Prepare(op Operation) (*PreparedMessage, error)

	// Submit 校验、编码、签名并提交任意操作
	Submit(ctx context.Context, op Operation, wallets ...wallet.Wallet) (*SendResult, error)

	// WaitForConfirmation 等待已提交的操作上链
	WaitForConfirmation(ctx context.Context, res *SendResult) (*transaction.TransactionInfo, error)
}

// PreparedMessage 已编码、待签名的合约调用
type PreparedMessage struct {
	Operation Operation
	To        *address.Address
	Value     *big.Int // nano
	Body      *cell.Cell
}

// BodyHash 消息体哈希（十六进制）
func (p *PreparedMessage) BodyHash() string {
	return hex.EncodeToString(p.Body.Hash())
}

// BodyBoC 消息体序列化结果
func (p *PreparedMessage) BodyBoC() []byte {
	return p.Body.ToBOC()
}

// SendResult 操作提交结果
type SendResult struct {
	Method  string
	TxHash  string // 外部消息哈希（十六进制）
	Seqno   uint32
	Value   *big.Int
	Handle  *transaction.Handle
	Success bool
}

// treasuryService Treasury 服务实现
type treasuryService struct {
	client client.Client
	config *services.Config
	wallet wallet.Wallet // 可选：默认 Wallet
	txs    transaction.Service
	logger client.Logger
}

// NewService 创建 Treasury 服务（不带 Wallet，只能 Prepare）
func NewService(c client.Client, cfg *services.Config) (Service, error) {
	return NewServiceWithWallet(c, cfg, nil)
}

// NewServiceWithWallet 创建带默认 Wallet 的 Treasury 服务
func NewServiceWithWallet(c client.Client, cfg *services.Config, w wallet.Wallet) (Service, error) {
	return newService(c, cfg, w, nil)
}

// NewServiceWithLogger 创建带默认 Wallet 与日志的 Treasury 服务
func NewServiceWithLogger(c client.Client, cfg *services.Config, w wallet.Wallet, logger client.Logger) (Service, error) {
	return newService(c, cfg, w, logger)
}

func newService(c client.Client, cfg *services.Config, w wallet.Wallet, logger client.Logger) (Service, error) {
	if cfg == nil || cfg.TreasuryAddress == nil {
		return nil, fmt.Errorf("treasury address is required")
	}
	s := &treasuryService{
		client: c,
		config: cfg.WithDefaults(),
		wallet: w,
		logger: logger,
	}
	if c != nil {
		s.txs = transaction.NewServiceWithLogger(c, logger)
	}
	return s, nil
}

// getWallet 获取 Wallet（优先使用参数，其次使用默认 Wallet）
func (s *treasuryService) getWallet(wallets ...wallet.Wallet) wallet.Wallet {
	if len(wallets) > 0 && wallets[0] != nil {
		return wallets[0]
	}
	return s.wallet
}

func (s *treasuryService) OpenRoom(ctx context.Context, op *OpenRoom, wallets ...wallet.Wallet) (*SendResult, error) {
	return s.Submit(ctx, op, wallets...)
}

// EnterPaid 未指定入场费时使用配置中的默认入场费
func (s *treasuryService) EnterPaid(ctx context.Context, op *EnterPaid, wallets ...wallet.Wallet) (*SendResult, error) {
	if op != nil && op.EntryFee == nil {
		withFee := *op
		withFee.EntryFee = new(big.Int).Set(s.config.DefaultEntryFee)
		op = &withFee
	}
	return s.Submit(ctx, op, wallets...)
}

func (s *treasuryService) CloseRoom(ctx context.Context, op *CloseRoom, wallets ...wallet.Wallet) (*SendResult, error) {
	return s.Submit(ctx, op, wallets...)
}

func (s *treasuryService) PayoutPaid(ctx context.Context, op *PayoutPaid, wallets ...wallet.Wallet) (*SendResult, error) {
	return s.Submit(ctx, op, wallets...)
}

func (s *treasuryService) PayoutAirdrop(ctx context.Context, op *PayoutAirdrop, wallets ...wallet.Wallet) (*SendResult, error) {
	return s.Submit(ctx, op, wallets...)
}

func (s *treasuryService) Upgrade(ctx context.Context, op *Upgrade, wallets ...wallet.Wallet) (*SendResult, error) {
	return s.Submit(ctx, op, wallets...)
}

func (s *treasuryService) FundAirdrop(ctx context.Context, op *FundAirdrop, wallets ...wallet.Wallet) (*SendResult, error) {
	return s.Submit(ctx, op, wallets...)
}

// Prepare 校验并编码
func (s *treasuryService) Prepare(op Operation) (*PreparedMessage, error) {
	if err := Validate(op); err != nil {
		return nil, err
	}

	body, err := BuildMessageBody(op)
	if err != nil {
		return nil, fmt.Errorf("build %s message body failed: %w", op.Method(), err)
	}

	return &PreparedMessage{
		Operation: op,
		To:        s.config.TreasuryAddress,
		Value:     AttachedValue(op, s.config.GasAmount),
		Body:      body,
	}, nil
}

// Submit 提交操作
//
// **流程**：
// 1. 参数校验（失败时不做任何网络调用）
// 2. 编码消息体
// 3. 查询钱包 seqno
// 4. 使用 Wallet 构建并签名外部消息
// 5. 广播并检查节点是否接受
func (s *treasuryService) Submit(ctx context.Context, op Operation, wallets ...wallet.Wallet) (*SendResult, error) {
	// 1-2. 校验与编码
	prepared, err := s.Prepare(op)
	if err != nil {
		return nil, err
	}

	// 3. 获取 Wallet
	w := s.getWallet(wallets...)
	if w == nil {
		return nil, fmt.Errorf("wallet is required")
	}
	if s.client == nil {
		return nil, fmt.Errorf("client is required")
	}

	seqno, err := s.client.GetSeqno(ctx, w.Address())
	if err != nil {
		return nil, fmt.Errorf("get wallet seqno failed: %w", err)
	}

	// 4. 签名
	signed, err := w.BuildTransfer(seqno, &wallet.Transfer{
		To:     prepared.To,
		Amount: prepared.Value,
		Body:   prepared.Body,
		Bounce: false,
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction failed: %w", err)
	}

	// 5. 提交
	submitted, err := s.txs.SubmitTransaction(ctx, w.Address(), signed)
	if err != nil {
		return nil, err
	}
	if !submitted.Accepted {
		return nil, fmt.Errorf("transaction rejected: %s", submitted.Reason)
	}

	if s.logger != nil {
		s.logger.Info("Treasury message sent",
			"method", op.Method(),
			"hash", submitted.Handle.MessageHash,
			"seqno", seqno,
			"value", prepared.Value.String())
	}

	return &SendResult{
		Method:  op.Method(),
		TxHash:  submitted.Handle.MessageHash,
		Seqno:   seqno,
		Value:   prepared.Value,
		Handle:  submitted.Handle,
		Success: true,
	}, nil
}

// WaitForConfirmation 按配置的次数与间隔轮询
func (s *treasuryService) WaitForConfirmation(ctx context.Context, res *SendResult) (*transaction.TransactionInfo, error) {
	if res == nil || res.Handle == nil {
		return nil, fmt.Errorf("nothing to confirm")
	}
	if s.txs == nil {
		return nil, fmt.Errorf("client is required")
	}
	return s.txs.WaitForTransaction(ctx, res.Handle, &transaction.WaitOptions{
		MaxAttempts: s.config.Confirm.MaxAttempts,
		Interval:    s.config.Confirm.Interval(),
	})
}
