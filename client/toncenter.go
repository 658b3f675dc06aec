package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// lookupTxLimit LookupTransaction 每次拉取的最近交易数量
const lookupTxLimit = 20

// toncenterClient toncenter JSON-RPC 客户端实现
type toncenterClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   Logger
	debug    bool
	nextID   atomic.Uint64
	retry    *RetryConfig
}

// NewToncenterClient 创建 toncenter 客户端
func NewToncenterClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("toncenter endpoint is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	retryConfig := config.Retry
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
		if config.Logger != nil {
			logger := config.Logger
			retryConfig.OnRetry = func(attempt int, err error) {
				logger.Warn("Retrying toncenter request", "attempt", attempt, "error", err)
			}
		}
	}

	return &toncenterClient{
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   config.Logger,
		debug:    config.Debug,
		retry:    retryConfig,
	}, nil
}

// call 调用 JSON-RPC 方法
//
// idempotent 为 true 时按 retry 配置重试；广播交易不重试。
func (c *toncenterClient) call(ctx context.Context, method string, params interface{}, idempotent bool) (json.RawMessage, error) {
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("JSON-RPC request", "method", method, "body", string(reqBody))
	}

	var respBody []byte
	var statusCode int
	doRequest := func(int) error {
		// 每次重试都创建新的请求（Body 只能读取一次）
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
		if reqErr != nil {
			return fmt.Errorf("create request failed: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("X-API-Key", c.apiKey)
		}

		httpResp, reqErr := c.client.Do(httpReq)
		if reqErr != nil {
			return reqErr
		}
		defer func() {
			if err := httpResp.Body.Close(); err != nil && c.logger != nil {
				c.logger.Warn("Failed to close response body", "error", err)
			}
		}()

		body, reqErr := io.ReadAll(httpResp.Body)
		if reqErr != nil {
			return fmt.Errorf("read response failed: %w", reqErr)
		}
		// 非幂等请求不重试，由响应体给出节点的拒绝原因
		if idempotent && isRetryableHTTPError(httpResp.StatusCode) {
			return &HTTPStatusError{StatusCode: httpResp.StatusCode}
		}

		respBody = body
		statusCode = httpResp.StatusCode
		return nil
	}

	retry := c.retry
	if !idempotent {
		retry = nil
	}
	if err := WithRetry(ctx, doRequest, retry); err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError()
		}
		return nil, NewNetworkError(fmt.Errorf("send request failed: %w", err))
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("JSON-RPC response", "status", statusCode, "body", string(respBody))
	}

	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		if statusCode != http.StatusOK {
			return nil, NewInvalidResponseError(fmt.Sprintf("HTTP error: %d, body: %s", statusCode, string(respBody)))
		}
		return nil, NewInvalidResponseError(fmt.Sprintf("unmarshal response failed: %v", err))
	}

	if rpcErr := jsonResp.rpcError(statusCode); rpcErr != nil {
		return nil, rpcErr
	}
	if statusCode != http.StatusOK {
		return nil, NewInvalidResponseError(fmt.Sprintf("HTTP error: %d, body: %s", statusCode, string(respBody)))
	}

	return jsonResp.Result, nil
}

// SendRawTransaction 广播已签名的外部消息
func (c *toncenterClient) SendRawTransaction(ctx context.Context, boc []byte) (*SendTxResult, error) {
	msgHash, err := bocHash(boc)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"boc": base64.StdEncoding.EncodeToString(boc),
	}
	if _, err := c.call(ctx, "sendBoc", params, false); err != nil {
		// 只有节点的 {ok:false} 应答算拒绝，其余是传输错误
		cErr, ok := IsClientError(err)
		if !ok || cErr.Code != ErrCodeRPCError {
			return nil, err
		}
		return &SendTxResult{
			TxHash:   msgHash,
			Accepted: false,
			Reason:   cErr.Message,
		}, nil
	}

	return &SendTxResult{
		TxHash:   msgHash,
		Accepted: true,
	}, nil
}

// GetAccountState 查询账户状态
func (c *toncenterClient) GetAccountState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	raw, err := c.call(ctx, "getAddressInformation", map[string]interface{}{"address": addr.String()}, true)
	if err != nil {
		return nil, fmt.Errorf("get address information failed: %w", err)
	}

	var info toncenterAddressInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode address information failed: %v", err))
	}

	state := &AccountState{
		Status:  normalizeAccountStatus(info.State),
		Balance: info.Balance.Int(),
	}
	if info.LastTransactionID != nil {
		state.LastTxLT = info.LastTransactionID.LT.Int().Uint64()
		if info.LastTransactionID.Hash != "" {
			if h, err := base64.StdEncoding.DecodeString(info.LastTransactionID.Hash); err == nil {
				state.LastTxHash = h
			}
		}
	}
	return state, nil
}

// GetSeqno 查询钱包 seqno
func (c *toncenterClient) GetSeqno(ctx context.Context, addr *address.Address) (uint32, error) {
	state, err := c.GetAccountState(ctx, addr)
	if err != nil {
		return 0, err
	}
	if !state.IsActive() {
		return 0, nil
	}

	res, err := c.RunGetMethod(ctx, addr, "seqno")
	if err != nil {
		return 0, err
	}
	seqno, err := res.Int(0)
	if err != nil {
		return 0, fmt.Errorf("decode seqno failed: %w", err)
	}
	return uint32(seqno.Uint64()), nil
}

// RunGetMethod 调用合约 get 方法
func (c *toncenterClient) RunGetMethod(ctx context.Context, addr *address.Address, method string, params ...*big.Int) (*GetMethodResult, error) {
	stack := make([][]string, 0, len(params))
	for _, p := range params {
		stack = append(stack, []string{"num", "0x" + p.Text(16)})
	}

	raw, err := c.call(ctx, "runGetMethod", map[string]interface{}{
		"address": addr.String(),
		"method":  method,
		"stack":   stack,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("run get method %s failed: %w", method, err)
	}

	var res toncenterGetMethodResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode get method result failed: %v", err))
	}
	if res.ExitCode != 0 && res.ExitCode != 1 {
		return nil, fmt.Errorf("get method %s exited with code %d", method, res.ExitCode)
	}

	out := &GetMethodResult{ExitCode: res.ExitCode, Stack: make([]interface{}, 0, len(res.Stack))}
	for i, entry := range res.Stack {
		v, err := decodeStackEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("decode stack entry %d: %w", i, err)
		}
		out.Stack = append(out.Stack, v)
	}
	return out, nil
}

// LookupTransaction 查找入站消息体哈希匹配的交易
func (c *toncenterClient) LookupTransaction(ctx context.Context, addr *address.Address, bodyHash []byte) (*TransactionRecord, error) {
	raw, err := c.call(ctx, "getTransactions", map[string]interface{}{
		"address": addr.String(),
		"limit":   lookupTxLimit,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("get transactions failed: %w", err)
	}

	var txs []toncenterTransaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode transactions failed: %v", err))
	}

	for _, tx := range txs {
		if tx.InMsg == nil || tx.InMsg.BodyHash == "" {
			continue
		}
		h, err := base64.StdEncoding.DecodeString(tx.InMsg.BodyHash)
		if err != nil || !bytes.Equal(h, bodyHash) {
			continue
		}

		txHash, err := base64.StdEncoding.DecodeString(tx.TransactionID.Hash)
		if err != nil || len(txHash) == 0 {
			return nil, NewInvalidResponseError(fmt.Sprintf("invalid transaction hash %q", tx.TransactionID.Hash))
		}
		return &TransactionRecord{
			Hash:          txHash,
			LT:            tx.TransactionID.LT.Int().Uint64(),
			Time:          time.Unix(tx.Utime, 0).UTC(),
			Fee:           tx.Fee.Int(),
			InMsgBodyHash: h,
		}, nil
	}

	return nil, ErrTransactionNotFound
}

// Close 关闭连接
func (c *toncenterClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// bocHash 计算 BoC 根 cell 的哈希（十六进制）
func bocHash(boc []byte) (string, error) {
	root, err := cell.FromBOC(boc)
	if err != nil {
		return "", fmt.Errorf("parse BoC failed: %w", err)
	}
	return hex.EncodeToString(root.Hash()), nil
}

// normalizeAccountStatus 统一账户状态命名
func normalizeAccountStatus(state string) string {
	switch strings.ToLower(state) {
	case "active":
		return AccountStatusActive
	case "frozen":
		return AccountStatusFrozen
	default:
		return AccountStatusUninitialized
	}
}

// decodeStackEntry 解析 toncenter 栈元素：["num","0x.."] / ["cell",{"bytes":".."}] / ["slice",{"bytes":".."}]
func decodeStackEntry(entry []json.RawMessage) (interface{}, error) {
	if len(entry) != 2 {
		return nil, fmt.Errorf("unexpected stack entry length %d", len(entry))
	}

	var kind string
	if err := json.Unmarshal(entry[0], &kind); err != nil {
		return nil, fmt.Errorf("decode stack entry type: %w", err)
	}

	switch kind {
	case "num":
		var s string
		if err := json.Unmarshal(entry[1], &s); err != nil {
			return nil, fmt.Errorf("decode num: %w", err)
		}
		return parseStackNum(s)
	case "cell", "slice":
		var obj struct {
			Bytes string `json:"bytes"`
		}
		if err := json.Unmarshal(entry[1], &obj); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		raw, err := base64.StdEncoding.DecodeString(obj.Bytes)
		if err != nil {
			return nil, fmt.Errorf("decode %s bytes: %w", kind, err)
		}
		c, err := cell.FromBOC(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s BoC: %w", kind, err)
		}
		if kind == "slice" {
			return c.BeginParse(), nil
		}
		return c, nil
	case "null":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported stack entry type %q", kind)
	}
}

// parseStackNum 解析 "0x.." 或 "-0x.." 格式的整数
func parseStackNum(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "0x")
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid num %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// jsonRPCRequest JSON-RPC请求结构
type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

// jsonRPCResponse toncenter 响应结构
//
// toncenter 在标准 JSON-RPC 之外还返回 ok / code / 字符串形式的 error
type jsonRPCResponse struct {
	OK     *bool           `json:"ok,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
	Code   int             `json:"code,omitempty"`
}

// jsonRPCError 标准 JSON-RPC 错误结构
type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcError 从响应中提取错误
func (r *jsonRPCResponse) rpcError(statusCode int) error {
	if len(r.Error) == 0 || string(r.Error) == "null" {
		if r.OK != nil && !*r.OK {
			return NewRPCError(r.Code, "request not ok")
		}
		return nil
	}

	var msg string
	if err := json.Unmarshal(r.Error, &msg); err == nil {
		code := r.Code
		if code == 0 {
			code = statusCode
		}
		return NewRPCError(code, msg)
	}

	var e jsonRPCError
	if err := json.Unmarshal(r.Error, &e); err == nil {
		return NewRPCError(e.Code, e.Message)
	}
	return NewRPCError(statusCode, string(r.Error))
}

// tonNumber 兼容字符串与数字两种 JSON 表示的整数
type tonNumber struct {
	v *big.Int
}

func (n *tonNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		n.v = new(big.Int)
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid integer %s", string(data))
	}
	n.v = v
	return nil
}

// Int 返回整数值（未设置时为 0）
func (n tonNumber) Int() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.v)
}

type toncenterTxID struct {
	LT   tonNumber `json:"lt"`
	Hash string    `json:"hash"`
}

type toncenterAddressInfo struct {
	Balance           tonNumber      `json:"balance"`
	State             string         `json:"state"`
	LastTransactionID *toncenterTxID `json:"last_transaction_id"`
}

type toncenterGetMethodResult struct {
	ExitCode int                 `json:"exit_code"`
	Stack    [][]json.RawMessage `json:"stack"`
}

type toncenterMessage struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	BodyHash    string `json:"body_hash"`
}

type toncenterTransaction struct {
	Utime         int64             `json:"utime"`
	TransactionID toncenterTxID     `json:"transaction_id"`
	Fee           tonNumber         `json:"fee"`
	InMsg         *toncenterMessage `json:"in_msg"`
}
