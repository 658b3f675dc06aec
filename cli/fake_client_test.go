package cli

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
)

// fakeClient 内存实现的 client.Client，所有交易立即确认
type fakeClient struct {
	mu         sync.Mutex
	sent       [][]byte
	calls      int
	balance    *big.Int
	getMethods map[string][]interface{}
	closed     bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balance:    big.NewInt(5_000_000_000),
		getMethods: make(map[string][]interface{}),
	}
}

func (f *fakeClient) SendRawTransaction(_ context.Context, boc []byte) (*client.SendTxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sent = append(f.sent, boc)
	return &client.SendTxResult{TxHash: fmt.Sprintf("%064x", len(f.sent)), Accepted: true}, nil
}

func (f *fakeClient) GetAccountState(context.Context, *address.Address) (*client.AccountState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &client.AccountState{Status: client.AccountStatusActive, Balance: f.balance}, nil
}

func (f *fakeClient) GetSeqno(context.Context, *address.Address) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 3, nil
}

func (f *fakeClient) RunGetMethod(_ context.Context, _ *address.Address, method string, _ ...*big.Int) (*client.GetMethodResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	stack, ok := f.getMethods[method]
	if !ok {
		return nil, fmt.Errorf("get method %s exited with code 11", method)
	}
	return &client.GetMethodResult{Stack: stack}, nil
}

func (f *fakeClient) LookupTransaction(_ context.Context, _ *address.Address, bodyHash []byte) (*client.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &client.TransactionRecord{
		Hash:          []byte{0xab, 0xcd},
		LT:            42,
		Time:          time.Unix(1_700_000_000, 0),
		Fee:           big.NewInt(1_500_000),
		InMsgBodyHash: bodyHash,
	}, nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
