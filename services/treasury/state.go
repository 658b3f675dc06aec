package treasury

import (
	"context"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
)

// 合约 get 方法名
const (
	GetterRoom             = "get_room"
	GetterOwner            = "get_owner"
	GetterUpgradeAuthority = "get_upgrade_authority"
	GetterAirdropPool      = "get_airdrop_pool"
)

// RoomStatus 房间状态
type RoomStatus int

const (
	RoomStatusNone RoomStatus = iota
	RoomStatusOpen
	RoomStatusClosed
	RoomStatusPaid
)

func (s RoomStatus) String() string {
	switch s {
	case RoomStatusNone:
		return "None"
	case RoomStatusOpen:
		return "Open"
	case RoomStatusClosed:
		return "Closed"
	case RoomStatusPaid:
		return "Paid"
	default:
		return fmt.Sprintf("RoomStatus(%d)", int(s))
	}
}

// RoomState 房间链上状态
type RoomState struct {
	Key          *big.Int
	Status       RoomStatus
	EntryFee     *big.Int // nano
	WinnersCount int
	PoolAfterFee *big.Int // nano
	TotalEntries uint64
	PaidHash     []byte // 派奖名单哈希，未派奖时为 nil
}

// ContractStateReader Treasury 合约状态查询
type ContractStateReader interface {
	GetRoomState(ctx context.Context, roomID *big.Int, day uint32) (*RoomState, error)
	GetOwner(ctx context.Context) (*address.Address, error)
	GetUpgradeAuthority(ctx context.Context) (*address.Address, error)
	GetAirdropPool(ctx context.Context) (*big.Int, error)
	GetBalance(ctx context.Context) (*big.Int, error)
}

// ChainStateReader 通过合约 get 方法读取链上状态
type ChainStateReader struct {
	client   client.Client
	treasury *address.Address
}

// NewChainStateReader 创建链上状态读取器
func NewChainStateReader(c client.Client, treasury *address.Address) *ChainStateReader {
	return &ChainStateReader{client: c, treasury: treasury}
}

// GetRoomState 调用 get_room(room_key)
//
// 返回栈：status | entry_fee | winners_count | pool_after_fee | total_entries | paid_hash（0 表示未派奖）
func (r *ChainStateReader) GetRoomState(ctx context.Context, roomID *big.Int, day uint32) (*RoomState, error) {
	key := RoomKey(roomID, day)
	res, err := r.client.RunGetMethod(ctx, r.treasury, GetterRoom, key)
	if err != nil {
		return nil, err
	}

	ints := make([]*big.Int, 6)
	for i := range ints {
		if ints[i], err = res.Int(i); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", GetterRoom, err)
		}
	}

	state := &RoomState{
		Key:          key,
		Status:       RoomStatus(ints[0].Int64()),
		EntryFee:     ints[1],
		WinnersCount: int(ints[2].Int64()),
		PoolAfterFee: ints[3],
		TotalEntries: ints[4].Uint64(),
	}
	if ints[5].Sign() < 0 || ints[5].BitLen() > 256 {
		return nil, fmt.Errorf("decode %s result: paid hash %s is not a 256-bit hash", GetterRoom, ints[5])
	}
	if ints[5].Sign() != 0 {
		state.PaidHash = ints[5].FillBytes(make([]byte, 32))
	}
	return state, nil
}

// GetOwner 调用 get_owner
func (r *ChainStateReader) GetOwner(ctx context.Context) (*address.Address, error) {
	return r.getAddress(ctx, GetterOwner)
}

// GetUpgradeAuthority 调用 get_upgrade_authority
func (r *ChainStateReader) GetUpgradeAuthority(ctx context.Context) (*address.Address, error) {
	return r.getAddress(ctx, GetterUpgradeAuthority)
}

// GetAirdropPool 调用 get_airdrop_pool
func (r *ChainStateReader) GetAirdropPool(ctx context.Context) (*big.Int, error) {
	res, err := r.client.RunGetMethod(ctx, r.treasury, GetterAirdropPool)
	if err != nil {
		return nil, err
	}
	return res.Int(0)
}

// GetBalance 查询合约账户余额
func (r *ChainStateReader) GetBalance(ctx context.Context) (*big.Int, error) {
	state, err := r.client.GetAccountState(ctx, r.treasury)
	if err != nil {
		return nil, err
	}
	return state.Balance, nil
}

func (r *ChainStateReader) getAddress(ctx context.Context, method string) (*address.Address, error) {
	res, err := r.client.RunGetMethod(ctx, r.treasury, method)
	if err != nil {
		return nil, err
	}
	addr, err := res.Address(0)
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return addr, nil
}

// DefaultMockOwner 静态读取器默认的 owner / upgrade authority
const DefaultMockOwner = "EQD4FPq-PRDieyQKkizFTRtSDyucUIqrj0v_zXJmqaDp6_0t"

// StaticStateReader 返回固定值的状态读取器（离线演示 / 测试）
type StaticStateReader struct {
	Owner            *address.Address
	UpgradeAuthority *address.Address
	Room             RoomState
	AirdropPool      *big.Int
	Balance          *big.Int
}

// NewStaticStateReader 创建带默认值的静态读取器
//
// 默认房间：Open，入场费 1 TON，100 名获胜者，奖池 0，参与人数 0。
func NewStaticStateReader() *StaticStateReader {
	owner := address.MustParseAddr(DefaultMockOwner)
	return &StaticStateReader{
		Owner:            owner,
		UpgradeAuthority: owner,
		Room: RoomState{
			Status:       RoomStatusOpen,
			EntryFee:     big.NewInt(1_000_000_000),
			WinnersCount: TierLow.WinnerSlots(),
			PoolAfterFee: new(big.Int),
		},
		AirdropPool: new(big.Int),
		Balance:     new(big.Int),
	}
}

func (r *StaticStateReader) GetRoomState(_ context.Context, roomID *big.Int, day uint32) (*RoomState, error) {
	state := r.Room
	state.Key = RoomKey(roomID, day)
	return &state, nil
}

func (r *StaticStateReader) GetOwner(context.Context) (*address.Address, error) {
	return r.Owner, nil
}

func (r *StaticStateReader) GetUpgradeAuthority(context.Context) (*address.Address, error) {
	return r.UpgradeAuthority, nil
}

func (r *StaticStateReader) GetAirdropPool(context.Context) (*big.Int, error) {
	return r.AirdropPool, nil
}

func (r *StaticStateReader) GetBalance(context.Context) (*big.Int, error) {
	return r.Balance, nil
}
