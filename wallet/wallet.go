package wallet

import (
	"crypto/ed25519"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	tonwallet "github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// MnemonicWords 助记词单词数量
const MnemonicWords = 24

// DefaultMessageTTL 外部消息有效期
const DefaultMessageTTL = 3 * time.Minute

// 发送模式：单独支付手续费 + 忽略动作阶段错误
const sendModePayFeesSeparately uint8 = 3

// Wallet 钱包接口
type Wallet interface {
	// Address 获取钱包地址
	Address() *address.Address

	// PublicKey 获取公钥
	PublicKey() ed25519.PublicKey

	// SignHash 签名给定哈希（Cell 哈希）
	SignHash(hash []byte) ([]byte, error)

	// BuildTransfer 构建并签名发送一条内部消息的外部消息
	BuildTransfer(seqno uint32, transfer *Transfer) (*SignedMessage, error)
}

// Transfer 内部消息参数
type Transfer struct {
	To     *address.Address
	Amount *big.Int // nano
	Body   *cell.Cell
	Bounce bool
}

// SignedMessage 已签名的外部消息
type SignedMessage struct {
	// BoC 外部消息序列化结果（提交给网络）
	BoC []byte
	// MessageHash 外部消息 Cell 哈希
	MessageHash []byte
	// BodyHash 外部消息体（签名 + 载荷）哈希，用于在交易列表中匹配
	BodyHash []byte
	// Seqno 使用的钱包 seqno
	Seqno uint32
	// ValidUntil 消息过期时间（unix 秒）
	ValidUntil uint32
}

// V4R2Wallet v4r2 钱包实现
//
// **说明**：
// - 密钥由 24 词助记词派生（tonutils-go ton/wallet）
// - 只负责构建与签名外部消息，不访问网络
type V4R2Wallet struct {
	privateKey ed25519.PrivateKey
	address    *address.Address
	subwallet  uint32
	ttl        time.Duration
	now        func() time.Time
}

// NewWalletFromMnemonic 从助记词创建钱包
//
// 助记词以空白分隔，必须恰好 24 个单词。
func NewWalletFromMnemonic(mnemonic string) (*V4R2Wallet, error) {
	words := strings.Fields(mnemonic)
	if len(words) != MnemonicWords {
		return nil, fmt.Errorf("invalid mnemonic: expected %d words, got %d", MnemonicWords, len(words))
	}

	w, err := tonwallet.FromSeed(nil, words, tonwallet.V4R2)
	if err != nil {
		return nil, fmt.Errorf("derive wallet from mnemonic: %w", err)
	}

	return &V4R2Wallet{
		privateKey: w.PrivateKey(),
		address:    w.WalletAddress(),
		subwallet:  tonwallet.DefaultSubwallet,
		ttl:        DefaultMessageTTL,
		now:        time.Now,
	}, nil
}

// NewMnemonic 生成新的 24 词助记词
func NewMnemonic() string {
	return strings.Join(tonwallet.NewSeed(), " ")
}

// Address 获取钱包地址
func (w *V4R2Wallet) Address() *address.Address {
	return w.address
}

// PublicKey 获取公钥
func (w *V4R2Wallet) PublicKey() ed25519.PublicKey {
	return w.privateKey.Public().(ed25519.PublicKey)
}

// SignHash 签名哈希值
func (w *V4R2Wallet) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(hash))
	}
	return ed25519.Sign(w.privateKey, hash), nil
}

// StateInit 钱包部署数据（seqno 为 0 时随首条消息附带）
func (w *V4R2Wallet) StateInit() (*tlb.StateInit, error) {
	return tonwallet.GetStateInit(w.PublicKey(), tonwallet.V4R2, w.subwallet)
}

// BuildTransfer 构建外部消息
//
// **流程**：
// 1. 构建内部消息 Cell
// 2. 组装 v4r2 载荷：subwallet_id | valid_until | seqno | op=0 | mode + ref(内部消息)
// 3. 对载荷 Cell 哈希做 ed25519 签名
// 4. 包装为外部消息（seqno 为 0 时附带 StateInit）并序列化为 BoC
func (w *V4R2Wallet) BuildTransfer(seqno uint32, transfer *Transfer) (*SignedMessage, error) {
	if transfer == nil || transfer.To == nil {
		return nil, fmt.Errorf("transfer destination is required")
	}
	amount := transfer.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("transfer amount must not be negative")
	}

	intMsg, err := tlb.ToCell(&tlb.InternalMessage{
		IHRDisabled: true,
		Bounce:      transfer.Bounce,
		DstAddr:     transfer.To,
		Amount:      tlb.FromNanoTON(amount),
		Body:        transfer.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("build internal message: %w", err)
	}

	validUntil := uint32(math.MaxUint32)
	if seqno != 0 {
		validUntil = uint32(w.now().Add(w.ttl).Unix())
	}

	payload := cell.BeginCell().
		MustStoreUInt(uint64(w.subwallet), 32).
		MustStoreUInt(uint64(validUntil), 32).
		MustStoreUInt(uint64(seqno), 32).
		MustStoreUInt(0, 8).
		MustStoreUInt(uint64(sendModePayFeesSeparately), 8).
		MustStoreRef(intMsg)

	sig, err := w.SignHash(payload.EndCell().Hash())
	if err != nil {
		return nil, err
	}

	body := cell.BeginCell().
		MustStoreSlice(sig, 512).
		MustStoreBuilder(payload).
		EndCell()

	ext := &tlb.ExternalMessage{
		DstAddr: w.address,
		Body:    body,
	}
	if seqno == 0 {
		stateInit, err := w.StateInit()
		if err != nil {
			return nil, fmt.Errorf("build wallet state init: %w", err)
		}
		ext.StateInit = stateInit
	}

	extCell, err := tlb.ToCell(ext)
	if err != nil {
		return nil, fmt.Errorf("build external message: %w", err)
	}

	return &SignedMessage{
		BoC:         extCell.ToBOC(),
		MessageHash: extCell.Hash(),
		BodyHash:    body.Hash(),
		Seqno:       seqno,
		ValidUntil:  validUntil,
	}, nil
}
