package treasury

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faeton/treasury-sdk-go/services/treasury"
	integration "github.com/faeton/treasury-sdk-go/test/integration"
)

// TestTreasuryState_Read 读取链上合约状态
func TestTreasuryState_Read(t *testing.T) {
	integration.EnsureNetwork(t)

	cfg := integration.LoadTestConfig(t)
	c := integration.SetupTestClient(t, cfg)
	defer integration.TeardownTestClient(t, c)

	reader := treasury.NewChainStateReader(c, integration.TreasuryAddress(t, cfg))

	ctx, cancel := context.WithTimeout(context.Background(), integration.DefaultTimeout)
	defer cancel()

	balance, err := reader.GetBalance(ctx)
	require.NoError(t, err, "查询余额失败")
	assert.GreaterOrEqual(t, balance.Sign(), 0)

	owner, err := reader.GetOwner(ctx)
	require.NoError(t, err, "调用 get_owner 失败")
	t.Logf("owner: %s, balance: %s", owner.String(), balance.String())
}

// TestCloseRoom_SendAndConfirm 发送 close_room 并等待确认
func TestCloseRoom_SendAndConfirm(t *testing.T) {
	integration.EnsureSending(t)

	cfg := integration.LoadTestConfig(t)
	c := integration.SetupTestClient(t, cfg)
	defer integration.TeardownTestClient(t, c)

	w := integration.LoadTestWallet(t, cfg)
	integration.RequireFunded(t, c, w.Address())

	svcCfg, err := cfg.ServicesConfig()
	require.NoError(t, err)
	svc, err := treasury.NewServiceWithWallet(c, svcCfg, w)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := svc.CloseRoom(ctx, &treasury.CloseRoom{
		RoomID: big.NewInt(time.Now().Unix()),
		Day:    integration.TestDay(),
	})
	require.NoError(t, err, "发送交易失败")
	assert.True(t, res.Success)

	info, err := svc.WaitForConfirmation(ctx, res)
	require.NoError(t, err, "等待交易确认失败: %s", res.TxHash)
	assert.Equal(t, "confirmed", info.Status)
	t.Logf("confirmed %s at lt %d", info.TxID, info.LT)
}
