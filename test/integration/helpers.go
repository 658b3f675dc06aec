package integration

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/utils"
)

// MinSenderBalance 发送测试交易所需的最低余额
var MinSenderBalance = utils.MustParseTON("0.5")

// RequireFunded 确认账户余额足够支付测试交易
func RequireFunded(t *testing.T, c client.Client, addr *address.Address) *big.Int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	state, err := c.GetAccountState(ctx, addr)
	require.NoError(t, err, "查询余额失败")
	if state.Balance.Cmp(MinSenderBalance) < 0 {
		t.Skipf("wallet %s holds %s TON, need at least %s TON",
			addr.String(), utils.FormatTON(state.Balance), utils.FormatTON(MinSenderBalance))
	}
	return state.Balance
}

// TestDay 返回今天对应的日期编码（YYYYMMDD）
func TestDay() uint32 {
	now := time.Now().UTC()
	return uint32(now.Year()*10000 + int(now.Month())*100 + now.Day())
}
