package treasury

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/faeton/treasury-sdk-go/types"
	"github.com/faeton/treasury-sdk-go/utils"
)

// 日期编码范围（YYYYMMDD 风格的日历编码，不是 unix 时间戳）
const (
	MinDay = 20240000
	MaxDay = 20300000
)

// 数量上限
const (
	MaxPaidWinners    = 100
	MaxAirdropWinners = 1000
)

// maxCoinsBits Coins 编码（VarUInteger 16）可表示的最大位数
const maxCoinsBits = 120

// ValidateRoomID 房间 ID 为正整数且不超过 256 位
func ValidateRoomID(id *big.Int) bool {
	return id != nil && id.Sign() > 0 && id.BitLen() <= 256
}

// ValidateDay 日期编码在 [MinDay, MaxDay] 区间内
func ValidateDay(day int64) bool {
	return day >= MinDay && day <= MaxDay
}

// ValidateAmount 十进制金额字符串可解析、严格为正，且可精确换算为 nano
func ValidateAmount(amount string) bool {
	d, err := decimal.NewFromString(amount)
	if err != nil || !d.IsPositive() {
		return false
	}
	_, err = utils.ParseTON(amount)
	return err == nil
}

// ValidateAmountFloat 数值金额为有限值且严格为正
func ValidateAmountFloat(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && amount > 0
}

// ValidateTier 等级为 1、2 或 3
func ValidateTier(tier int64) bool {
	return tier == int64(TierLow) || tier == int64(TierMedium) || tier == int64(TierHigh)
}

// ValidateAddress 地址文本可被解析（用户友好格式或原始格式）
func ValidateAddress(addr string) bool {
	_, err := utils.ParseAddress(addr)
	return err == nil
}

// ValidateLinearWeights 权重之和等于 n(n+1)/2
func ValidateLinearWeights(weights []uint32) bool {
	n := uint64(len(weights))
	var sum uint64
	for _, w := range weights {
		sum += uint64(w)
	}
	return sum == n*(n+1)/2
}

// ValidateWinnersCount 付费房间获胜人数在 (0, 100] 区间内
func ValidateWinnersCount(n int64) bool {
	return n > 0 && n <= MaxPaidWinners
}

// ValidateAirdropCount 空投获胜人数在 [0, 1000] 区间内
func ValidateAirdropCount(n int64) bool {
	return n >= 0 && n <= MaxAirdropWinners
}

// validCoins 金额为正且可用 Coins 编码表示
func validCoins(v *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.BitLen() <= maxCoinsBits
}

// Validate 校验操作参数
//
// 校验失败返回 *types.TreasuryError，发生在任何编码或网络调用之前。
func Validate(op Operation) error {
	switch o := op.(type) {
	case *OpenRoom:
		if err := validateRoom(o.RoomID, o.Day); err != nil {
			return err
		}
		if !validCoins(o.EntryFee) {
			return ErrInvalidEntryFee()
		}
		if !ValidateTier(int64(o.Tier)) {
			return ErrInvalidTier()
		}
	case *EnterPaid:
		if err := validateRoom(o.RoomID, o.Day); err != nil {
			return err
		}
		if !validCoins(o.EntryFee) {
			return ErrInvalidEntryFee()
		}
	case *CloseRoom:
		return validateRoom(o.RoomID, o.Day)
	case *PayoutPaid:
		if err := validateRoom(o.RoomID, o.Day); err != nil {
			return err
		}
		if !ValidateWinnersCount(int64(len(o.Winners))) {
			return ErrInvalidWinnersCount()
		}
		for i, w := range o.Winners {
			if w == nil {
				return types.NewTreasuryError(types.ErrorCodeInvalidAddress, "Invalid winner address",
					map[string]interface{}{"index": i})
			}
		}
		if len(o.Weights) != len(o.Winners) || !ValidateLinearWeights(o.Weights) {
			return ErrInvalidWeights()
		}
	case *PayoutAirdrop:
		if !ValidateAirdropCount(int64(len(o.TopWinners))) {
			return ErrInvalidTopCount()
		}
		if !ValidateAirdropCount(int64(len(o.StreakWinners))) {
			return ErrInvalidStreakCount()
		}
	case *Upgrade:
		if o.NewCode == nil {
			return ErrInvalidCodePath(nil)
		}
	case *FundAirdrop:
		if !validCoins(o.Amount) {
			return ErrInvalidAmount()
		}
	default:
		return ErrUnknownOperation
	}
	return nil
}

func validateRoom(roomID *big.Int, day uint32) error {
	if !ValidateRoomID(roomID) {
		return ErrInvalidRoomID()
	}
	if !ValidateDay(int64(day)) {
		return ErrInvalidDay()
	}
	return nil
}

// 校验错误构造函数（CLI 参数解析与 Validate 共用，保证消息与错误码一致）

func ErrInvalidRoomID() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidRoomID, "Invalid room ID", nil)
}

func ErrInvalidDay() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidDay, "Invalid day format", nil)
}

func ErrInvalidEntryFee() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidEntryFee, "Invalid entry fee", nil)
}

func ErrInvalidAmount() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidAmount, "Invalid amount", nil)
}

func ErrInvalidTier() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidTier, "Invalid risk tier (must be 1, 2, or 3)", nil)
}

func ErrInvalidWinnersCount() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidWinnersCount, "Invalid winners count", nil)
}

func ErrInvalidWeights() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidWeights, "Invalid linear weights", nil)
}

func ErrInvalidTopCount() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidTopCount, "Invalid top winners count", nil)
}

func ErrInvalidStreakCount() error {
	return types.NewTreasuryError(types.ErrorCodeInvalidStreakCount, "Invalid streak winners count", nil)
}

func ErrInvalidCodePath(cause error) error {
	if cause != nil {
		return types.WrapTreasuryError(types.ErrorCodeInvalidCodePath, "Invalid new code path", cause)
	}
	return types.NewTreasuryError(types.ErrorCodeInvalidCodePath, "Invalid new code path", nil)
}

func ErrInvalidAddress(field string) error {
	return types.NewTreasuryError(types.ErrorCodeInvalidAddress, "Invalid address",
		map[string]interface{}{"field": field})
}
