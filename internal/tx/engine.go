package tx

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/vault"
	"github.com/SafeMPC/custody-engine/internal/metrics"
	"github.com/SafeMPC/custody-engine/internal/tx/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// transferGasLimit 普通转账的固定资源上限
const transferGasLimit = 21000

// ErrCancelledBeforeBroadcast 广播前被取消：交易未上链，无任何副作用。
// 广播成功之后的取消是 no-op，交易已经无法撤回。
var ErrCancelledBeforeBroadcast = errors.New("send cancelled before broadcast")

// Engine 交易生命周期引擎。驱动单笔出账交易走完
// Draft → NonceAssigned → FeeEstimated → Signed → Broadcast → Confirmed/Failed，
// 保证广播幂等和失败分类。引擎自身从不自动重试。
type Engine struct {
	chainClient chain.Client
	vault       *vault.Vault
	history     *HistoryStore
	chainID     *big.Int
	metrics     *metrics.Service
}

// NewEngine 创建交易引擎
func NewEngine(chainClient chain.Client, v *vault.Vault, history *HistoryStore, chainID *big.Int, m *metrics.Service) *Engine {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &Engine{
		chainClient: chainClient,
		vault:       v,
		history:     history,
		chainID:     chainID,
		metrics:     m,
	}
}

// Send 执行完整发送流水线。单次调用内 nonce 获取、签名、广播严格顺序；
// 同钱包并发 Send 之间不做串行化，各自独立取 nonce。
func (e *Engine) Send(ctx context.Context, req SendRequest) (*PendingTransaction, error) {
	t, err := e.newDraft(req)
	if err != nil {
		return nil, err
	}

	// Draft → NonceAssigned：签名前实时获取，不用任何缓存值
	nonce, err := e.chainClient.GetNonce(ctx, t.FromAddress)
	if err != nil {
		return e.failTx(ctx, t, custody.ErrKindTransient, "failed to fetch nonce", err)
	}
	t.Nonce = &nonce
	e.advance(t, StateNonceAssigned)

	// NonceAssigned → FeeEstimated
	tiers, err := e.chainClient.GetFeeTiers(ctx)
	if err != nil {
		return e.failTx(ctx, t, custody.ErrKindTransient, "failed to fetch fee tiers", err)
	}
	t.GasPrice = selectTier(tiers, t.FeeLevel)
	t.Fee = new(big.Int).Mul(t.GasPrice, big.NewInt(transferGasLimit))
	e.advance(t, StateFeeEstimated)

	// 签名前检查余额：余额不足就没必要签名
	balance, err := e.chainClient.GetBalance(ctx, t.FromAddress)
	if err != nil {
		return e.failTx(ctx, t, custody.ErrKindTransient, "failed to fetch balance", err)
	}
	if balance.Cmp(t.RequiredTotal()) < 0 {
		return e.failTx(ctx, t, custody.ErrKindInsufficientFunds,
			"balance does not cover amount plus fee", nil)
	}

	// FeeEstimated → Signed：签名失败直接终止，绝不自动重试
	if err := e.sign(ctx, t); err != nil {
		kind := custody.KindOf(err)
		if kind == "" {
			kind = custody.ErrKindKeyUnavailable
		}
		return e.failTx(ctx, t, kind, "failed to sign transaction", err)
	}
	e.advance(t, StateSigned)

	// 广播前的取消没有副作用；广播后取消不再生效
	if err := ctx.Err(); err != nil {
		log.Info().Str("tx_id", t.ID).Msg("Send cancelled before broadcast")
		return t, ErrCancelledBeforeBroadcast
	}

	return e.broadcast(ctx, t)
}

// Rebroadcast 用同一签名载荷重新提交。仅限 Transient 失败后的重试路径：
// 重新签名会产生携带新 nonce 的竞争交易，必须避免。
func (e *Engine) Rebroadcast(ctx context.Context, t *PendingTransaction) (*PendingTransaction, error) {
	if len(t.SignedPayload) == 0 {
		return nil, custody.NewError(custody.ErrKindInvalidInput, "transaction has no signed payload")
	}
	if t.State == StateConfirmed {
		return t, nil
	}
	if t.State == StateFailed && !t.FailureKind.Retryable() {
		return nil, custody.NewErrorf(custody.ErrKindInvalidInput,
			"transaction failed with non-retryable kind %s", t.FailureKind)
	}

	// 清掉上一轮的失败标记，重新走广播分类
	t.FailureKind = ""
	t.FailureDetail = ""
	return e.broadcast(ctx, t)
}

// AwaitConfirmation 轮询回执直到确认、失败或 ctx 结束。
// 没有回执只是 pending，不是失败；放弃策略由调用方的 ctx 决定。
func (e *Engine) AwaitConfirmation(ctx context.Context, t *PendingTransaction, interval time.Duration) (*PendingTransaction, error) {
	if t.State != StateBroadcast {
		return nil, custody.NewErrorf(custody.ErrKindInvalidInput,
			"transaction in state %s cannot be confirmed", t.State)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := e.chainClient.GetReceipt(ctx, t.TxHash)
		if err != nil {
			if isTransportError(err) {
				// 临时网络故障不终止轮询
				log.Warn().Err(err).Str("tx_id", t.ID).Msg("Receipt poll failed, retrying")
			} else {
				return t, custody.WrapError(err, custody.ErrKindTransient, "failed to fetch receipt")
			}
		}

		if receipt != nil {
			if receipt.Status == chain.ReceiptStatusSuccess {
				e.advance(t, StateConfirmed)
				e.persist(ctx, t)
				e.metrics.ObserveTxOutcome(string(StateConfirmed), "")
				log.Info().Str("tx_id", t.ID).Str("tx_hash", t.TxHash).Uint64("block", receipt.BlockNumber).Msg("Transaction confirmed")
				return t, nil
			}
			return e.failTx(ctx, t, custody.ErrKindInvalidInput, "execution failed on chain", nil)
		}

		select {
		case <-ctx.Done():
			// 交易仍在网络上，调用方放弃轮询不改变交易状态
			return t, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetTransaction 读取留档交易
func (e *Engine) GetTransaction(ctx context.Context, walletID, txID string) (*PendingTransaction, error) {
	t, err := e.history.Get(ctx, walletID, txID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, custody.NewErrorf(custody.ErrKindNotFound, "no transaction %s for wallet %s", txID, walletID)
	}
	return t, nil
}

// ListTransactions 列出钱包的留档交易
func (e *Engine) ListTransactions(ctx context.Context, walletID string) ([]*PendingTransaction, error) {
	return e.history.List(ctx, walletID)
}

// newDraft 校验请求并创建 Draft 状态交易。地址格式在取 nonce 之前校验。
func (e *Engine) newDraft(req SendRequest) (*PendingTransaction, error) {
	if req.WalletID == "" {
		return nil, custody.NewError(custody.ErrKindInvalidInput, "wallet id is required")
	}
	if !common.IsHexAddress(req.FromAddress) {
		return nil, custody.NewErrorf(custody.ErrKindInvalidInput, "invalid from address %q", req.FromAddress)
	}
	if !common.IsHexAddress(req.ToAddress) {
		return nil, custody.NewErrorf(custody.ErrKindInvalidInput, "invalid to address %q", req.ToAddress)
	}
	if err := verifyChecksum(req.FromAddress); err != nil {
		return nil, err
	}
	if err := verifyChecksum(req.ToAddress); err != nil {
		return nil, err
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, custody.NewError(custody.ErrKindInvalidInput, "amount must be positive")
	}
	if !req.FeeLevel.Valid() {
		return nil, custody.NewErrorf(custody.ErrKindInvalidInput, "unknown fee level %q", req.FeeLevel)
	}

	now := time.Now()
	t := &PendingTransaction{
		ID:          uuid.New().String(),
		WalletID:    req.WalletID,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		Amount:      new(big.Int).Set(req.Amount),
		FeeLevel:    req.FeeLevel,
		State:       StateDraft,
		Note:        req.Note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// 自转账只是告警，不是硬错误
	if strings.EqualFold(req.FromAddress, req.ToAddress) {
		t.Warning = "recipient equals sender"
	}
	return t, nil
}

// sign 从保管库取签名密钥，构造规范编码并签名。
// 交易哈希本地计算，不信任远端回显。
func (e *Engine) sign(ctx context.Context, t *PendingTransaction) error {
	keyHex, err := e.vault.Reveal(ctx, custody.SecretID{
		WalletID: t.WalletID,
		Kind:     custody.SecretKindPrivateKey,
	})
	if err != nil {
		return err
	}
	defer clear(keyHex)

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(string(keyHex)), "0x"))
	if err != nil {
		return custody.WrapError(err, custody.ErrKindKeyUnavailable, "stored key is not a valid secp256k1 key")
	}
	defer func() { privateKey.D.SetInt64(0) }()

	derived := crypto.PubkeyToAddress(privateKey.PublicKey)
	if !strings.EqualFold(derived.Hex(), t.FromAddress) {
		return custody.NewErrorf(custody.ErrKindWrongKeyForAddress,
			"stored key derives %s, not %s", derived.Hex(), t.FromAddress)
	}

	to := common.HexToAddress(t.ToAddress)
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    *t.Nonce,
		GasPrice: t.GasPrice,
		Gas:      transferGasLimit,
		To:       &to,
		Value:    t.Amount,
	})

	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(e.chainID), privateKey)
	if err != nil {
		return custody.WrapError(err, custody.ErrKindKeyUnavailable, "signing failed")
	}

	payload, err := signed.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "failed to encode signed transaction")
	}

	t.SignedPayload = payload
	t.TxHash = signed.Hash().Hex()
	return nil
}

// broadcast 提交签名载荷并分类响应
func (e *Engine) broadcast(ctx context.Context, t *PendingTransaction) (*PendingTransaction, error) {
	e.metrics.BroadcastRoundsInc()

	echoedHash, err := e.chainClient.Broadcast(ctx, t.SignedPayload)

	outcome := classifyBroadcastError(err)
	if err != nil && isTransportError(err) {
		outcome = outcomeTransient
	}

	switch outcome {
	case outcomeAccepted:
		if echoedHash != "" && !strings.EqualFold(echoedHash, t.TxHash) {
			// 哈希以本地计算为准
			log.Warn().Str("tx_id", t.ID).Str("local", t.TxHash).Str("remote", echoedHash).
				Msg("Remote echoed a different tx hash, keeping locally computed hash")
		}
		e.advance(t, StateBroadcast)
		e.persist(ctx, t)
		e.metrics.ObserveTxOutcome(string(StateBroadcast), "")
		log.Info().Str("tx_id", t.ID).Str("tx_hash", t.TxHash).Msg("Transaction broadcast")
		return t, nil

	case outcomeAlreadyKnown:
		// 同一载荷重复提交是幂等成功
		e.advance(t, StateBroadcast)
		e.persist(ctx, t)
		e.metrics.ObserveTxOutcome(string(StateBroadcast), "already_known")
		log.Info().Str("tx_id", t.ID).Str("tx_hash", t.TxHash).Msg("Transaction already known to the network")
		return t, nil

	default:
		kind := outcome.failureKind()
		return e.failTx(ctx, t, kind, "broadcast rejected", err)
	}
}

// advance 推进状态机
func (e *Engine) advance(t *PendingTransaction, next State) {
	log.Debug().Str("tx_id", t.ID).Str("from", string(t.State)).Str("to", string(next)).Msg("Transaction state change")
	t.State = next
	t.UpdatedAt = time.Now()
}

// failTx 置为终态 Failed 并留档。返回的错误始终携带分类。
func (e *Engine) failTx(ctx context.Context, t *PendingTransaction, kind custody.ErrorKind, detail string, cause error) (*PendingTransaction, error) {
	t.FailureKind = kind
	t.FailureDetail = detail
	e.advance(t, StateFailed)
	e.persist(ctx, t)
	e.metrics.ObserveTxOutcome(string(StateFailed), string(kind))

	log.Warn().Str("tx_id", t.ID).Str("kind", string(kind)).Str("detail", detail).Err(cause).Msg("Transaction failed")

	if cause != nil {
		return t, custody.WrapError(cause, kind, detail)
	}
	return t, custody.NewError(kind, detail)
}

// persist 留档失败只记日志，不影响已确定的交易结论
func (e *Engine) persist(ctx context.Context, t *PendingTransaction) {
	if e.history == nil {
		return
	}
	if err := e.history.Save(ctx, t); err != nil {
		log.Error().Err(err).Str("tx_id", t.ID).Msg("Failed to persist transaction record")
	}
}

// selectTier 按档位取价格
func selectTier(tiers *chain.FeeTiers, level FeeLevel) *big.Int {
	switch level {
	case FeeLevelSlow:
		return new(big.Int).Set(tiers.Slow)
	case FeeLevelFast:
		return new(big.Int).Set(tiers.Fast)
	default:
		return new(big.Int).Set(tiers.Normal)
	}
}

// verifyChecksum 混合大小写地址必须通过 EIP-55 校验；全小写/全大写地址跳过
func verifyChecksum(address string) error {
	body := strings.TrimPrefix(address, "0x")
	hasLower := strings.ContainsAny(body, "abcdef")
	hasUpper := strings.ContainsAny(body, "ABCDEF")
	if !hasLower || !hasUpper {
		return nil
	}
	if common.HexToAddress(address).Hex() != address {
		return custody.NewErrorf(custody.ErrKindInvalidInput, "address %q fails checksum", address)
	}
	return nil
}
