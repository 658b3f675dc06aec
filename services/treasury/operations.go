package treasury

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/faeton/treasury-sdk-go/types"
)

// 合约方法名（消息体头部中的 UTF-8 字符串）
const (
	MethodOpenRoom      = "open_room"
	MethodEnterPaid     = "enter_paid"
	MethodCloseRoom     = "close_room"
	MethodPayoutPaid    = "payout_paid"
	MethodPayoutAirdrop = "payout_airdrop"
	MethodUpgrade       = "upgrade"
	MethodFundAirdrop   = "fund_airdrop"
)

// methods 所有已知方法名（互不为前缀）
var methods = []string{
	MethodOpenRoom,
	MethodEnterPaid,
	MethodCloseRoom,
	MethodPayoutPaid,
	MethodPayoutAirdrop,
	MethodUpgrade,
	MethodFundAirdrop,
}

// ErrUnknownOperation 未知操作（按错误码匹配，可用于 errors.Is）
var ErrUnknownOperation = &types.TreasuryError{
	Code:    types.ErrorCodeUnknownOperation,
	Message: "Unknown operation",
	Layer:   types.LayerClientSDKGo,
}

// MethodFromName 校验方法名是否为已知操作
func MethodFromName(name string) (string, error) {
	for _, m := range methods {
		if m == name {
			return m, nil
		}
	}
	return "", types.NewTreasuryError(types.ErrorCodeUnknownOperation,
		fmt.Sprintf("Unknown operation %q", name), map[string]interface{}{"method": name})
}

// Tier 风险等级
type Tier uint32

const (
	TierLow    Tier = 1
	TierMedium Tier = 2
	TierHigh   Tier = 3
)

// String 返回等级描述
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "Low Risk"
	case TierMedium:
		return "Medium Risk"
	case TierHigh:
		return "High Risk"
	default:
		return fmt.Sprintf("Tier(%d)", uint32(t))
	}
}

// WinnerSlots 等级对应的获胜人数
func (t Tier) WinnerSlots() int {
	switch t {
	case TierLow:
		return 100
	case TierMedium:
		return 50
	case TierHigh:
		return 20
	default:
		return 0
	}
}

// Operation Treasury 合约调用
//
// 变体：*OpenRoom | *EnterPaid | *CloseRoom | *PayoutPaid | *PayoutAirdrop | *Upgrade | *FundAirdrop
type Operation interface {
	// Method 合约方法名
	Method() string
	isOperation()
}

// OpenRoom 开启付费房间
type OpenRoom struct {
	RoomID   *big.Int
	Day      uint32
	EntryFee *big.Int // nano
	Tier     Tier
}

// EnterPaid 进入付费房间（入场费作为消息金额附带，不写入消息体）
type EnterPaid struct {
	RoomID   *big.Int
	Day      uint32
	EntryFee *big.Int // nano
}

// CloseRoom 关闭房间
type CloseRoom struct {
	RoomID *big.Int
	Day    uint32
}

// PayoutPaid 付费房间派奖
//
// Winners / Weights 当前不写入消息体，见 BuildMessageBody。
type PayoutPaid struct {
	RoomID  *big.Int
	Day     uint32
	Winners []*address.Address
	Weights []uint32
}

// PayoutAirdrop 空投派奖
//
// TopWinners / StreakWinners 当前不写入消息体，见 BuildMessageBody。
type PayoutAirdrop struct {
	TopWinners    []*address.Address
	StreakWinners []*address.Address
}

// Upgrade 升级合约代码
type Upgrade struct {
	NewCode *cell.Cell
}

// FundAirdrop 向空投池注资（金额作为消息金额附带）
type FundAirdrop struct {
	Amount *big.Int // nano
}

func (*OpenRoom) Method() string      { return MethodOpenRoom }
func (*EnterPaid) Method() string     { return MethodEnterPaid }
func (*CloseRoom) Method() string     { return MethodCloseRoom }
func (*PayoutPaid) Method() string    { return MethodPayoutPaid }
func (*PayoutAirdrop) Method() string { return MethodPayoutAirdrop }
func (*Upgrade) Method() string       { return MethodUpgrade }
func (*FundAirdrop) Method() string   { return MethodFundAirdrop }

func (*OpenRoom) isOperation()      {}
func (*EnterPaid) isOperation()     {}
func (*CloseRoom) isOperation()     {}
func (*PayoutPaid) isOperation()    {}
func (*PayoutAirdrop) isOperation() {}
func (*Upgrade) isOperation()       {}
func (*FundAirdrop) isOperation()   {}
