package tx

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/SafeMPC/custody-engine/internal/custody"
)

// broadcastOutcome 广播响应的分类结果
type broadcastOutcome int

const (
	outcomeAccepted broadcastOutcome = iota
	// outcomeAlreadyKnown 同一载荷已在 pending 池：幂等成功，不是失败
	outcomeAlreadyKnown
	outcomeNonceConflict
	outcomeInsufficientFunds
	outcomeTransient
)

// classifyBroadcastError 把节点返回的广播错误归入错误分类。
// 各客户端实现的报错文案不完全一致，这里按子串匹配主流实现
// （geth/erigon/nethermind）的措辞。
func classifyBroadcastError(err error) broadcastOutcome {
	if err == nil {
		return outcomeAccepted
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "already known"),
		strings.Contains(msg, "known transaction"),
		strings.Contains(msg, "alreadyknown"):
		return outcomeAlreadyKnown

	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce already used"),
		strings.Contains(msg, "invalid nonce"),
		strings.Contains(msg, "replacement transaction underpriced"):
		return outcomeNonceConflict

	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient balance"):
		return outcomeInsufficientFunds
	}

	return outcomeTransient
}

// isTransportError 判断是否为网络/超时类错误，与节点业务错误区分
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// failureKind 分类到错误分类的映射
func (o broadcastOutcome) failureKind() custody.ErrorKind {
	switch o {
	case outcomeNonceConflict:
		return custody.ErrKindNonceConflict
	case outcomeInsufficientFunds:
		return custody.ErrKindInsufficientFunds
	case outcomeTransient:
		return custody.ErrKindTransient
	}
	return ""
}
