package treasury

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"

	"github.com/faeton/treasury-sdk-go/client"
)

const testTreasury = "EQD4FPq-PRDieyQKkizFTRtSDyucUIqrj0v_zXJmqaDp6_0t"

func treasuryAddress() *address.Address {
	return address.MustParseAddr(testTreasury)
}

// fakeClient 内存实现的 client.Client
type fakeClient struct {
	seqno         uint32
	reject        string
	sendErr       error
	balance       *big.Int
	getMethods    map[string][]interface{}
	getMethodArgs map[string][]string
	sent          [][]byte
	confirmed     map[string]bool
	calls         int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balance:       new(big.Int),
		getMethods:    make(map[string][]interface{}),
		getMethodArgs: make(map[string][]string),
		confirmed:     make(map[string]bool),
	}
}

func (f *fakeClient) SendRawTransaction(_ context.Context, boc []byte) (*client.SendTxResult, error) {
	f.calls++
	f.sent = append(f.sent, boc)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.reject != "" {
		return &client.SendTxResult{TxHash: "rejected", Accepted: false, Reason: f.reject}, nil
	}
	return &client.SendTxResult{TxHash: fmt.Sprintf("msg-%d", len(f.sent)), Accepted: true}, nil
}

func (f *fakeClient) GetAccountState(context.Context, *address.Address) (*client.AccountState, error) {
	f.calls++
	return &client.AccountState{Status: client.AccountStatusActive, Balance: f.balance}, nil
}

func (f *fakeClient) GetSeqno(context.Context, *address.Address) (uint32, error) {
	f.calls++
	return f.seqno, nil
}

func (f *fakeClient) RunGetMethod(_ context.Context, _ *address.Address, method string, params ...*big.Int) (*client.GetMethodResult, error) {
	f.calls++
	stack, ok := f.getMethods[method]
	if !ok {
		return nil, fmt.Errorf("get method %s exited with code 11", method)
	}
	for _, p := range params {
		f.getMethodArgs[method] = append(f.getMethodArgs[method], p.String())
	}
	return &client.GetMethodResult{Stack: stack}, nil
}

func (f *fakeClient) LookupTransaction(_ context.Context, _ *address.Address, bodyHash []byte) (*client.TransactionRecord, error) {
	f.calls++
	if !f.confirmed[string(bodyHash)] {
		return nil, client.ErrTransactionNotFound
	}
	return &client.TransactionRecord{
		Hash:          []byte{0x01},
		LT:            1,
		Time:          time.Unix(1_700_000_000, 0),
		Fee:           big.NewInt(1),
		InMsgBodyHash: bodyHash,
	}, nil
}

func (f *fakeClient) Close() error { return nil }
