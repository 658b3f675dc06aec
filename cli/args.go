package cli

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/faeton/treasury-sdk-go/services/treasury"
	"github.com/faeton/treasury-sdk-go/utils"
)

// 位置参数解析：解析失败与校验失败返回同一个 TreasuryError

func parseRoomID(s string) (*big.Int, error) {
	id, err := utils.ParseUint256(s)
	if err != nil || !treasury.ValidateRoomID(id) {
		return nil, treasury.ErrInvalidRoomID()
	}
	return id, nil
}

func parseDay(s string) (uint32, error) {
	day, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || !treasury.ValidateDay(day) {
		return 0, treasury.ErrInvalidDay()
	}
	return uint32(day), nil
}

func parseRoom(roomArg, dayArg string) (*big.Int, uint32, error) {
	roomID, err := parseRoomID(roomArg)
	if err != nil {
		return nil, 0, err
	}
	day, err := parseDay(dayArg)
	if err != nil {
		return nil, 0, err
	}
	return roomID, day, nil
}

// parseAmount 解析十进制 TON 金额，invalid 为失败时返回的错误
func parseAmount(s string, invalid func() error) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !treasury.ValidateAmount(s) {
		return nil, invalid()
	}
	nano, err := utils.ParseTON(s)
	if err != nil {
		return nil, invalid()
	}
	return nano, nil
}

func parseTier(s string) (treasury.Tier, error) {
	tier, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || !treasury.ValidateTier(tier) {
		return 0, treasury.ErrInvalidTier()
	}
	return treasury.Tier(tier), nil
}

// parseCount 解析整数数量，valid 为范围校验
func parseCount(s string, valid func(int64) bool, invalid func() error) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || !valid(n) {
		return 0, invalid()
	}
	return int(n), nil
}
