package ethereum

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/SafeMPC/custody-engine/internal/tx/chain"
	"github.com/pkg/errors"
)

// Client EVM JSON-RPC 客户端，实现 chain.Client
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient 创建 RPC 客户端
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// RPCRequest RPC 请求
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// RPCResponse RPC 响应
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// RPCError 节点返回的业务错误。Message 用于广播结果分类。
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error: %s (code: %d)", e.Message, e.Code)
}

// call 执行一次 RPC 调用
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := &RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal RPC request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute HTTP request")
	}
	defer resp.Body.Close()

	var rpcResp RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, errors.Wrap(err, "failed to decode RPC response")
	}

	if rpcResp.Error != nil {
		// 保留类型，调用方按 Message 分类
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// parseHexBig 解析带 0x 前缀的 hex 数值
func parseHexBig(raw json.RawMessage) (*big.Int, error) {
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal hex value")
	}
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		return nil, errors.Errorf("failed to parse hex value %q", hexStr)
	}
	return value, nil
}

// GetNonce 获取下一个未用 nonce。必须查 pending 池，
// 否则并发发送会拿到重复 nonce。
func (c *Client) GetNonce(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionCount", []interface{}{address, "pending"})
	if err != nil {
		return 0, errors.Wrap(err, "failed to call eth_getTransactionCount")
	}
	nonce, err := parseHexBig(result)
	if err != nil {
		return 0, err
	}
	return nonce.Uint64(), nil
}

// GetBalance 查询余额
func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", []interface{}{address, "latest"})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call eth_getBalance")
	}
	return parseHexBig(result)
}

// GetFeeTiers 基于当前 gas price 推出三档价格：slow 80%、normal 100%、fast 120%
func (c *Client) GetFeeTiers(ctx context.Context) (*chain.FeeTiers, error) {
	result, err := c.call(ctx, "eth_gasPrice", []interface{}{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call eth_gasPrice")
	}
	gasPrice, err := parseHexBig(result)
	if err != nil {
		return nil, err
	}

	scale := func(pct int64) *big.Int {
		scaled := new(big.Int).Mul(gasPrice, big.NewInt(pct))
		return scaled.Div(scaled, big.NewInt(100))
	}

	return &chain.FeeTiers{
		Slow:   scale(80),
		Normal: scale(100),
		Fast:   scale(120),
	}, nil
}

// Broadcast 广播已签名交易
func (c *Client) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	payload := "0x" + hex.EncodeToString(rawTx)
	result, err := c.call(ctx, "eth_sendRawTransaction", []interface{}{payload})
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal tx hash")
	}
	return txHash, nil
}

// GetReceipt 查询交易回执；交易尚未打包时返回 (nil, nil)
func (c *Client) GetReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call eth_getTransactionReceipt")
	}
	if string(result) == "null" || len(result) == 0 {
		return nil, nil
	}

	var receipt struct {
		TransactionHash string `json:"transactionHash"`
		Status          string `json:"status"`
		BlockNumber     string `json:"blockNumber"`
	}
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal receipt")
	}

	status := chain.ReceiptStatusFailed
	if receipt.Status == "0x1" {
		status = chain.ReceiptStatusSuccess
	}

	blockNumber := uint64(0)
	if receipt.BlockNumber != "" {
		if bn, err := parseHexBig(json.RawMessage(fmt.Sprintf("%q", receipt.BlockNumber))); err == nil {
			blockNumber = bn.Uint64()
		}
	}

	return &chain.Receipt{
		TxHash:      receipt.TransactionHash,
		Status:      status,
		BlockNumber: blockNumber,
	}, nil
}
