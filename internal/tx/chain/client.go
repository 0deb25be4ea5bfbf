package chain

import (
	"context"
	"math/big"
)

// FeeTiers 三档费用价格（每资源单位价格，EVM 语境下为 gas price）
type FeeTiers struct {
	Slow   *big.Int
	Normal *big.Int
	Fast   *big.Int
}

// ReceiptStatus 链上回执状态
type ReceiptStatus int

const (
	ReceiptStatusSuccess ReceiptStatus = iota
	ReceiptStatusFailed
)

// Receipt 交易回执
type Receipt struct {
	TxHash      string
	Status      ReceiptStatus
	BlockNumber uint64
}

// Client 区块链 RPC/索引器客户端契约。所有调用都是挂起点，
// 必须尊重 ctx 的取消和超时。
type Client interface {
	// GetNonce 返回地址的下一个未用 nonce（含 pending 池）
	GetNonce(ctx context.Context, address string) (uint64, error)
	// GetBalance 返回地址可用余额
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	// GetFeeTiers 返回三档费用价格
	GetFeeTiers(ctx context.Context) (*FeeTiers, error)
	// Broadcast 提交已签名交易，返回网络回显的交易哈希
	Broadcast(ctx context.Context, rawTx []byte) (string, error)
	// GetReceipt 查询回执；尚无回执时返回 (nil, nil)
	GetReceipt(ctx context.Context, txHash string) (*Receipt, error)
}
