package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Client TON 网络客户端接口
type Client interface {
	// SendRawTransaction 广播已签名的外部消息（BoC 字节）
	SendRawTransaction(ctx context.Context, boc []byte) (*SendTxResult, error)

	// GetAccountState 查询账户状态与余额
	GetAccountState(ctx context.Context, addr *address.Address) (*AccountState, error)

	// GetSeqno 查询钱包 seqno（钱包未部署时返回 0）
	GetSeqno(ctx context.Context, addr *address.Address) (uint32, error)

	// RunGetMethod 调用合约 get 方法
	RunGetMethod(ctx context.Context, addr *address.Address, method string, params ...*big.Int) (*GetMethodResult, error)

	// LookupTransaction 在账户最近的交易中查找入站消息体哈希匹配的交易
	// 未找到时返回 ErrTransactionNotFound
	LookupTransaction(ctx context.Context, addr *address.Address, bodyHash []byte) (*TransactionRecord, error)

	// Close 关闭连接
	Close() error
}

// SendTxResult 交易提交结果
type SendTxResult struct {
	TxHash   string `json:"tx_hash"` // 外部消息哈希（十六进制）
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"` // 拒绝原因
}

// 账户状态
const (
	AccountStatusActive        = "active"
	AccountStatusUninitialized = "uninitialized"
	AccountStatusFrozen        = "frozen"
)

// AccountState 账户状态
type AccountState struct {
	Status     string
	Balance    *big.Int // nano
	LastTxLT   uint64
	LastTxHash []byte
}

// IsActive 账户是否已部署
func (s *AccountState) IsActive() bool {
	return s != nil && s.Status == AccountStatusActive
}

// TransactionRecord 已上链交易记录
type TransactionRecord struct {
	Hash          []byte
	LT            uint64
	Time          time.Time
	Fee           *big.Int // nano
	InMsgBodyHash []byte
}

// GetMethodResult get 方法执行结果
//
// Stack 元素类型：*big.Int | *cell.Cell | *cell.Slice | nil
type GetMethodResult struct {
	ExitCode int
	Stack    []interface{}
}

// Int 读取栈上第 i 个整数
func (r *GetMethodResult) Int(i int) (*big.Int, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("stack entry %d is %T, not an integer", i, v)
	}
	return n, nil
}

// Slice 读取栈上第 i 个 cell / slice
func (r *GetMethodResult) Slice(i int) (*cell.Slice, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case *cell.Slice:
		return x, nil
	case *cell.Cell:
		return x.BeginParse(), nil
	default:
		return nil, fmt.Errorf("stack entry %d is %T, not a cell", i, v)
	}
}

// Address 读取栈上第 i 个地址（slice 形式）
func (r *GetMethodResult) Address(i int) (*address.Address, error) {
	s, err := r.Slice(i)
	if err != nil {
		return nil, err
	}
	addr, err := s.LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("stack entry %d: load address: %w", i, err)
	}
	return addr, nil
}

func (r *GetMethodResult) at(i int) (interface{}, error) {
	if r == nil || i < 0 || i >= len(r.Stack) {
		return nil, fmt.Errorf("stack entry %d out of range", i)
	}
	return r.Stack[i], nil
}

// NewClient 创建新的客户端
func NewClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Protocol {
	case ProtocolToncenter:
		return NewToncenterClient(config)
	case ProtocolLiteserver:
		return NewLiteserverClient(config)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", config.Protocol)
	}
}
