package client

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const testWalletAddr = "EQD4FPq-PRDieyQKkizFTRtSDyucUIqrj0v_zXJmqaDp6_0t"

type rpcHandler func(t *testing.T, method string, params map[string]interface{}) (int, string)

func newTestServer(t *testing.T, handler rpcHandler) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Method string                 `json:"method"`
			Params map[string]interface{} `json:"params"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q, want test-key", got)
		}
		status, resp := handler(t, req.Method, req.Params)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestToncenter(t *testing.T, url string) Client {
	t.Helper()
	c, err := NewToncenterClient(&Config{
		Endpoint: url,
		Protocol: ProtocolToncenter,
		APIKey:   "test-key",
		Timeout:  5,
		Retry:    FixedIntervalConfig(3, time.Millisecond),
	})
	if err != nil {
		t.Fatalf("NewToncenterClient() error = %v", err)
	}
	return c
}

func TestToncenter_SendRawTransaction(t *testing.T) {
	msg := cell.BeginCell().MustStoreUInt(0xdeadbeef, 32).EndCell()
	boc := msg.ToBOC()

	tests := []struct {
		name         string
		status       int
		response     string
		wantAccepted bool
		wantCalls    int32
	}{
		{
			name:         "accepted",
			status:       http.StatusOK,
			response:     `{"ok":true,"result":{"@type":"ok"}}`,
			wantAccepted: true,
			wantCalls:    1,
		},
		{
			name:         "rejected by node",
			status:       http.StatusInternalServerError,
			response:     `{"ok":false,"error":"LITE_SERVER_UNKNOWN: cannot apply external message","code":500}`,
			wantAccepted: false,
			wantCalls:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
				if method != "sendBoc" {
					t.Errorf("method = %s, want sendBoc", method)
				}
				if params["boc"] != base64.StdEncoding.EncodeToString(boc) {
					t.Errorf("unexpected boc param %v", params["boc"])
				}
				return tt.status, tt.response
			})

			res, err := newTestToncenter(t, srv.URL).SendRawTransaction(context.Background(), boc)
			if err != nil {
				t.Fatalf("SendRawTransaction() error = %v", err)
			}
			if res.Accepted != tt.wantAccepted {
				t.Errorf("Accepted = %v, want %v (reason %q)", res.Accepted, tt.wantAccepted, res.Reason)
			}
			if res.TxHash != hex.EncodeToString(msg.Hash()) {
				t.Errorf("TxHash = %s, want %x", res.TxHash, msg.Hash())
			}
			if !tt.wantAccepted && res.Reason == "" {
				t.Error("expected rejection reason")
			}
			// 广播不重试
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestToncenter_SendRawTransaction_InvalidBoC(t *testing.T) {
	c := newTestToncenter(t, "http://127.0.0.1:0")
	if _, err := c.SendRawTransaction(context.Background(), []byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error for invalid BoC")
	}
}

func TestToncenter_SendRawTransaction_TransportError(t *testing.T) {
	boc := cell.BeginCell().MustStoreUInt(1, 32).EndCell().ToBOC()

	t.Run("gateway error", func(t *testing.T) {
		srv, calls := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
			return http.StatusBadGateway, `<html>502 Bad Gateway</html>`
		})
		res, err := newTestToncenter(t, srv.URL).SendRawTransaction(context.Background(), boc)
		if res != nil {
			t.Errorf("expected nil result, got %+v", res)
		}
		cErr, ok := IsClientError(err)
		if !ok {
			t.Fatalf("expected client error, got %v", err)
		}
		if cErr.Code != ErrCodeInvalidResponse {
			t.Errorf("Code = %d, want %d", cErr.Code, ErrCodeInvalidResponse)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("server calls = %d, want 1", got)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestToncenter(t, url).SendRawTransaction(context.Background(), boc)
		cErr, ok := IsClientError(err)
		if !ok {
			t.Fatalf("expected client error, got %v", err)
		}
		if cErr.Code != ErrCodeNetwork {
			t.Errorf("Code = %d, want %d", cErr.Code, ErrCodeNetwork)
		}
	})
}

func TestToncenter_GetAccountState(t *testing.T) {
	lastHash := []byte("0123456789abcdef0123456789abcdef")
	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		if method != "getAddressInformation" {
			t.Errorf("method = %s", method)
		}
		return http.StatusOK, `{"ok":true,"result":{"balance":"1500000000","state":"active",` +
			`"last_transaction_id":{"lt":"4200","hash":"` + base64.StdEncoding.EncodeToString(lastHash) + `"}}}`
	})

	state, err := newTestToncenter(t, srv.URL).GetAccountState(context.Background(), address.MustParseAddr(testWalletAddr))
	if err != nil {
		t.Fatalf("GetAccountState() error = %v", err)
	}
	if !state.IsActive() {
		t.Errorf("Status = %s, want active", state.Status)
	}
	if state.Balance.Cmp(big.NewInt(1_500_000_000)) != 0 {
		t.Errorf("Balance = %s", state.Balance)
	}
	if state.LastTxLT != 4200 {
		t.Errorf("LastTxLT = %d", state.LastTxLT)
	}
	if string(state.LastTxHash) != string(lastHash) {
		t.Errorf("LastTxHash = %x", state.LastTxHash)
	}
}

func TestToncenter_GetSeqno(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  uint32
	}{
		{name: "active wallet", state: "active", want: 0x2a},
		{name: "undeployed wallet", state: "uninitialized", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
				switch method {
				case "getAddressInformation":
					return http.StatusOK, `{"ok":true,"result":{"balance":0,"state":"` + tt.state + `"}}`
				case "runGetMethod":
					if params["method"] != "seqno" {
						t.Errorf("get method = %v", params["method"])
					}
					return http.StatusOK, `{"ok":true,"result":{"exit_code":0,"stack":[["num","0x2a"]]}}`
				}
				t.Errorf("unexpected method %s", method)
				return http.StatusBadRequest, `{}`
			})

			got, err := newTestToncenter(t, srv.URL).GetSeqno(context.Background(), address.MustParseAddr(testWalletAddr))
			if err != nil {
				t.Fatalf("GetSeqno() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetSeqno() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToncenter_RunGetMethod(t *testing.T) {
	owner := address.MustParseAddr(testWalletAddr)
	slice := cell.BeginCell().MustStoreAddr(owner).EndCell()

	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		stack, _ := params["stack"].([]interface{})
		if len(stack) != 1 {
			t.Errorf("expected one stack param, got %v", params["stack"])
		} else if entry, _ := stack[0].([]interface{}); len(entry) != 2 || entry[0] != "num" || entry[1] != "0x3039" {
			t.Errorf("stack param = %v, want [num 0x3039]", stack[0])
		}
		return http.StatusOK, `{"ok":true,"result":{"exit_code":0,"stack":[` +
			`["num","-0x5"],` +
			`["slice",{"bytes":"` + base64.StdEncoding.EncodeToString(slice.ToBOC()) + `"}]]}}`
	})

	res, err := newTestToncenter(t, srv.URL).RunGetMethod(context.Background(), owner, "get_room", big.NewInt(12345))
	if err != nil {
		t.Fatalf("RunGetMethod() error = %v", err)
	}

	n, err := res.Int(0)
	if err != nil || n.Int64() != -5 {
		t.Errorf("Int(0) = %v, %v", n, err)
	}
	got, err := res.Address(1)
	if err != nil {
		t.Fatalf("Address(1) error = %v", err)
	}
	if !got.Equals(owner) {
		t.Errorf("Address(1) = %s, want %s", got, owner)
	}
	if _, err := res.Int(1); err == nil {
		t.Error("expected type error reading a slice as int")
	}
	if _, err := res.Int(5); err == nil {
		t.Error("expected out of range error")
	}
}

func TestToncenter_RunGetMethod_ExitCode(t *testing.T) {
	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"exit_code":11,"stack":[]}}`
	})

	_, err := newTestToncenter(t, srv.URL).RunGetMethod(context.Background(), address.MustParseAddr(testWalletAddr), "get_room")
	if err == nil {
		t.Fatal("expected error for non-zero exit code")
	}
}

func TestToncenter_LookupTransaction(t *testing.T) {
	bodyHash := make([]byte, 32)
	bodyHash[0] = 0xaa
	otherHash := make([]byte, 32)
	txHash := []byte("tx-hash-tx-hash-tx-hash-tx-hash!")

	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		if method != "getTransactions" {
			t.Errorf("method = %s", method)
		}
		return http.StatusOK, `{"ok":true,"result":[` +
			`{"utime":1700000000,"transaction_id":{"lt":"10","hash":"AAAA"},"fee":"1","in_msg":{"body_hash":"` + base64.StdEncoding.EncodeToString(otherHash) + `"}},` +
			`{"utime":1700000100,"transaction_id":{"lt":"11","hash":"` + base64.StdEncoding.EncodeToString(txHash) + `"},"fee":"2500000","in_msg":{"body_hash":"` + base64.StdEncoding.EncodeToString(bodyHash) + `"}}` +
			`]}`
	})
	c := newTestToncenter(t, srv.URL)
	addr := address.MustParseAddr(testWalletAddr)

	rec, err := c.LookupTransaction(context.Background(), addr, bodyHash)
	if err != nil {
		t.Fatalf("LookupTransaction() error = %v", err)
	}
	if rec.LT != 11 {
		t.Errorf("LT = %d, want 11", rec.LT)
	}
	if string(rec.Hash) != string(txHash) {
		t.Errorf("Hash = %x", rec.Hash)
	}
	if rec.Fee.Int64() != 2_500_000 {
		t.Errorf("Fee = %s", rec.Fee)
	}
	if !rec.Time.Equal(time.Unix(1700000100, 0)) {
		t.Errorf("Time = %s", rec.Time)
	}

	missing := make([]byte, 32)
	missing[31] = 0x01
	if _, err := c.LookupTransaction(context.Background(), addr, missing); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestToncenter_LookupTransaction_BadHash(t *testing.T) {
	bodyHash := make([]byte, 32)
	bodyHash[0] = 0xbb

	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		return http.StatusOK, `{"ok":true,"result":[` +
			`{"utime":1700000000,"transaction_id":{"lt":"12","hash":"not base64!"},"fee":"1","in_msg":{"body_hash":"` +
			base64.StdEncoding.EncodeToString(bodyHash) + `"}}]}`
	})

	_, err := newTestToncenter(t, srv.URL).LookupTransaction(context.Background(), address.MustParseAddr(testWalletAddr), bodyHash)
	cErr, ok := IsClientError(err)
	if !ok {
		t.Fatalf("expected client error, got %v", err)
	}
	if cErr.Code != ErrCodeInvalidResponse {
		t.Errorf("Code = %d, want %d", cErr.Code, ErrCodeInvalidResponse)
	}
}

func TestToncenter_ReadRetry(t *testing.T) {
	var attempts atomic.Int32
	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		if attempts.Add(1) < 3 {
			return http.StatusTooManyRequests, `{"ok":false,"error":"Ratelimit exceed","code":429}`
		}
		return http.StatusOK, `{"ok":true,"result":{"balance":"7","state":"uninitialized"}}`
	})

	state, err := newTestToncenter(t, srv.URL).GetAccountState(context.Background(), address.MustParseAddr(testWalletAddr))
	if err != nil {
		t.Fatalf("GetAccountState() error = %v", err)
	}
	if state.IsActive() {
		t.Error("expected uninitialized account")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestToncenter_RPCError(t *testing.T) {
	srv, _ := newTestServer(t, func(t *testing.T, method string, params map[string]interface{}) (int, string) {
		return http.StatusOK, `{"ok":false,"error":"Incorrect address","code":416}`
	})

	_, err := newTestToncenter(t, srv.URL).GetAccountState(context.Background(), address.MustParseAddr(testWalletAddr))
	cErr, ok := IsClientError(err)
	if !ok {
		t.Fatalf("expected client error, got %v", err)
	}
	if cErr.Code != ErrCodeRPCError {
		t.Errorf("Code = %d, want %d", cErr.Code, ErrCodeRPCError)
	}
}

func TestNewClient_UnsupportedProtocol(t *testing.T) {
	if _, err := NewClient(&Config{Endpoint: "x", Protocol: "grpc"}); err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}
