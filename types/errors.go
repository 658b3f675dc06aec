package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TreasuryError Treasury 业务错误（校验失败等可识别错误）
//
// **说明**：
// - Code 为稳定的机器可读错误码（见下方常量）
// - Message 为面向用户的可读信息
// - 校验错误在任何编码 / 网络调用之前产生，原样传递到 CLI 边界
type TreasuryError struct {
	Code      string
	Message   string
	Layer     string
	Details   map[string]interface{}
	TraceID   string
	Timestamp string
	Err       error
}

func (e *TreasuryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TreasuryError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，便于 errors.Is(err, &TreasuryError{Code: ...})
func (e *TreasuryError) Is(target error) bool {
	t, ok := target.(*TreasuryError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// IsTreasuryError 检查错误链中是否包含 TreasuryError
func IsTreasuryError(err error) (*TreasuryError, bool) {
	var tErr *TreasuryError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}

// HasCode 检查错误链中是否包含指定错误码
func HasCode(err error, code string) bool {
	tErr, ok := IsTreasuryError(err)
	return ok && tErr.Code == code
}

// Layer 常量
const (
	LayerClientSDKGo = "treasury-sdk-go"
	LayerCLI         = "treasury-cli"
)

// ErrorCode 错误码常量
const (
	ErrorCodeInvalidRoomID       = "INVALID_ROOM_ID"
	ErrorCodeInvalidDay          = "INVALID_DAY"
	ErrorCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrorCodeInvalidEntryFee     = "INVALID_ENTRY_FEE"
	ErrorCodeInvalidTier         = "INVALID_TIER"
	ErrorCodeInvalidTopCount     = "INVALID_TOP_COUNT"
	ErrorCodeInvalidStreakCount  = "INVALID_STREAK_COUNT"
	ErrorCodeInvalidWinnersCount = "INVALID_WINNERS_COUNT"
	ErrorCodeInvalidWeights      = "INVALID_WEIGHTS"
	ErrorCodeInvalidCodePath     = "INVALID_CODE_PATH"
	ErrorCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrorCodeUnknownOperation    = "UNKNOWN_OPERATION"
)

// NewTreasuryError 创建 TreasuryError（自动填充 TraceID 与时间戳）
func NewTreasuryError(code string, message string, details map[string]interface{}) *TreasuryError {
	if details == nil {
		details = make(map[string]interface{})
	}
	return &TreasuryError{
		Code:      code,
		Message:   message,
		Layer:     LayerClientSDKGo,
		Details:   details,
		TraceID:   uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WrapTreasuryError 创建携带底层原因的 TreasuryError
func WrapTreasuryError(code string, message string, err error) *TreasuryError {
	tErr := NewTreasuryError(code, message, nil)
	tErr.Err = err
	return tErr
}
