package treasury

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// HouseFeeBps 初始数据中的平台费率（2.5%）
const HouseFeeBps = 250

// 消息体头部：32 位 0 操作码（文本评论标记）
const commentOpcode = 0

// BuildMessageBody 构建操作消息体
//
// **格式**：
//
//	uint32(0) | method(UTF-8) | 字段...
//
// - open_room: room_id u256 | day u32 | entry_fee coins | tier u32
// - enter_paid / close_room / payout_paid: room_id u256 | day u32
// - payout_airdrop / fund_airdrop: 仅头部
// - upgrade: 头部 + ref(new_code)
//
// **注意**：
// - PayoutPaid 的 Winners/Weights 与 PayoutAirdrop 的两个名单不写入消息体，
//   合约期望的数组编码尚未确定
// - 调用方应先调用 Validate；编码本身不做业务校验
func BuildMessageBody(op Operation) (*cell.Cell, error) {
	if op == nil {
		return nil, ErrUnknownOperation
	}
	method, err := MethodFromName(op.Method())
	if err != nil {
		return nil, err
	}

	b := cell.BeginCell().MustStoreUInt(commentOpcode, 32)
	if err := b.StoreSlice([]byte(method), uint(len(method))*8); err != nil {
		return nil, fmt.Errorf("store method name: %w", err)
	}

	switch o := op.(type) {
	case *OpenRoom:
		if err := storeRoom(b, o.RoomID, o.Day); err != nil {
			return nil, err
		}
		if err := b.StoreBigCoins(o.EntryFee); err != nil {
			return nil, fmt.Errorf("store entry fee: %w", err)
		}
		if err := b.StoreUInt(uint64(o.Tier), 32); err != nil {
			return nil, fmt.Errorf("store tier: %w", err)
		}
	case *EnterPaid:
		if err := storeRoom(b, o.RoomID, o.Day); err != nil {
			return nil, err
		}
	case *CloseRoom:
		if err := storeRoom(b, o.RoomID, o.Day); err != nil {
			return nil, err
		}
	case *PayoutPaid:
		if err := storeRoom(b, o.RoomID, o.Day); err != nil {
			return nil, err
		}
	case *PayoutAirdrop, *FundAirdrop:
	case *Upgrade:
		if o.NewCode == nil {
			return nil, fmt.Errorf("upgrade requires new code cell")
		}
		if err := b.StoreRef(o.NewCode); err != nil {
			return nil, fmt.Errorf("store new code: %w", err)
		}
	default:
		return nil, ErrUnknownOperation
	}

	return b.EndCell(), nil
}

func storeRoom(b *cell.Builder, roomID *big.Int, day uint32) error {
	if roomID == nil {
		return fmt.Errorf("room id is required")
	}
	if err := b.StoreBigUInt(roomID, 256); err != nil {
		return fmt.Errorf("store room id: %w", err)
	}
	if err := b.StoreUInt(uint64(day), 32); err != nil {
		return fmt.Errorf("store day: %w", err)
	}
	return nil
}

// DecodeMessageBody 解析消息体（BuildMessageBody 的逆过程）
//
// 只还原写入消息体的字段；EnterPaid.EntryFee、FundAirdrop.Amount
// 以及派奖名单不在消息体中，解析结果中为空。
func DecodeMessageBody(body *cell.Cell) (Operation, error) {
	if body == nil {
		return nil, fmt.Errorf("empty message body")
	}
	s := body.BeginParse()

	op, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("load opcode: %w", err)
	}
	if op != commentOpcode {
		return nil, fmt.Errorf("unexpected opcode 0x%08x", op)
	}

	method, err := loadMethod(s)
	if err != nil {
		return nil, err
	}

	var result Operation
	switch method {
	case MethodOpenRoom:
		roomID, day, err := loadRoom(s)
		if err != nil {
			return nil, err
		}
		fee, err := s.LoadBigCoins()
		if err != nil {
			return nil, fmt.Errorf("load entry fee: %w", err)
		}
		tier, err := s.LoadUInt(32)
		if err != nil {
			return nil, fmt.Errorf("load tier: %w", err)
		}
		result = &OpenRoom{RoomID: roomID, Day: day, EntryFee: fee, Tier: Tier(tier)}
	case MethodEnterPaid:
		roomID, day, err := loadRoom(s)
		if err != nil {
			return nil, err
		}
		result = &EnterPaid{RoomID: roomID, Day: day}
	case MethodCloseRoom:
		roomID, day, err := loadRoom(s)
		if err != nil {
			return nil, err
		}
		result = &CloseRoom{RoomID: roomID, Day: day}
	case MethodPayoutPaid:
		roomID, day, err := loadRoom(s)
		if err != nil {
			return nil, err
		}
		result = &PayoutPaid{RoomID: roomID, Day: day}
	case MethodPayoutAirdrop:
		result = &PayoutAirdrop{}
	case MethodFundAirdrop:
		result = &FundAirdrop{}
	case MethodUpgrade:
		code, err := s.LoadRefCell()
		if err != nil {
			return nil, fmt.Errorf("load new code: %w", err)
		}
		result = &Upgrade{NewCode: code}
	}

	if s.BitsLeft() != 0 || s.RefsNum() != 0 {
		return nil, fmt.Errorf("trailing data after %s body: %d bits, %d refs", method, s.BitsLeft(), s.RefsNum())
	}
	return result, nil
}

// loadMethod 按已知方法名匹配头部字符串（方法名互不为前缀）
func loadMethod(s *cell.Slice) (string, error) {
	for _, m := range methods {
		bits := uint(len(m)) * 8
		if s.BitsLeft() < bits {
			continue
		}
		peek := s.Copy()
		name, err := peek.LoadSlice(bits)
		if err != nil {
			continue
		}
		if bytes.Equal(name, []byte(m)) {
			if _, err := s.LoadSlice(bits); err != nil {
				return "", err
			}
			return m, nil
		}
	}
	return "", ErrUnknownOperation
}

func loadRoom(s *cell.Slice) (*big.Int, uint32, error) {
	roomID, err := s.LoadBigUInt(256)
	if err != nil {
		return nil, 0, fmt.Errorf("load room id: %w", err)
	}
	day, err := s.LoadUInt(32)
	if err != nil {
		return nil, 0, fmt.Errorf("load day: %w", err)
	}
	return roomID, uint32(day), nil
}

// AttachedValue 操作附带的消息金额
//
// enter_paid 附带入场费，fund_airdrop 附带注资金额，其余操作附带 gas。
func AttachedValue(op Operation, gas *big.Int) *big.Int {
	switch o := op.(type) {
	case *EnterPaid:
		if o.EntryFee != nil {
			return new(big.Int).Set(o.EntryFee)
		}
	case *FundAirdrop:
		if o.Amount != nil {
			return new(big.Int).Set(o.Amount)
		}
	}
	if gas == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(gas)
}

// RoomKey 房间键：room_id + day
func RoomKey(roomID *big.Int, day uint32) *big.Int {
	key := new(big.Int).SetUint64(uint64(day))
	if roomID != nil {
		key.Add(key, roomID)
	}
	return key
}

// BuildInitData 构建合约初始数据
//
//	owner addr | upgrade_authority addr | house_fee_bps u16 | airdrop_pool coins
func BuildInitData(owner, upgradeAuthority *address.Address) (*cell.Cell, error) {
	if owner == nil || upgradeAuthority == nil {
		return nil, fmt.Errorf("owner and upgrade authority are required")
	}
	return cell.BeginCell().
		MustStoreAddr(owner).
		MustStoreAddr(upgradeAuthority).
		MustStoreUInt(HouseFeeBps, 16).
		MustStoreCoins(0).
		EndCell(), nil
}
