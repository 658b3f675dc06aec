package treasury

import (
	"context"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
)

// WinnerSource 获胜者名单来源
//
// 派奖命令通过该接口获取名单，真实实现可替换为链上 / 后端数据。
type WinnerSource interface {
	// Winners 返回 count 个获胜者地址（按名次排序）
	Winners(ctx context.Context, count int) ([]*address.Address, error)
}

// mockBaseHex 模拟地址的基础账户哈希
//
// 索引后缀覆盖末尾若干位；第 60、61 位为非数字字符，保证 0..999 的后缀不会互相碰撞。
const mockBaseHex = "f814fabe3d10e27b240a922cc54d1b520f2b9c508aab8f4bffcd7266a9a0ebfd"

// MockWinnerSource 确定性模拟名单（本地测试 / dry-run 使用）
type MockWinnerSource struct{}

// Winners 实现 WinnerSource
func (MockWinnerSource) Winners(ctx context.Context, count int) ([]*address.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CreateWinnersArray(count)
}

// CreateWinnersArray 生成 count 个确定性模拟地址
//
// 第 i 个地址为 0:<基础哈希前缀><两位以上十进制 i>，例如后缀 00..09。
func CreateWinnersArray(count int) ([]*address.Address, error) {
	if count < 0 || count > MaxAirdropWinners {
		return nil, fmt.Errorf("winners count %d out of range [0, %d]", count, MaxAirdropWinners)
	}

	winners := make([]*address.Address, 0, count)
	for i := 0; i < count; i++ {
		suffix := fmt.Sprintf("%02d", i)
		raw := "0:" + mockBaseHex[:len(mockBaseHex)-len(suffix)] + suffix
		addr, err := address.ParseRawAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("build mock winner %d: %w", i, err)
		}
		winners = append(winners, addr)
	}
	return winners, nil
}

// CreateLinearWeights 生成线性递减权重 [n, n-1, ..., 1]
func CreateLinearWeights(count int) []uint32 {
	if count <= 0 {
		return []uint32{}
	}
	weights := make([]uint32, count)
	for i := range weights {
		weights[i] = uint32(count - i)
	}
	return weights
}
