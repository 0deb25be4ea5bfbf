package tx

import (
	"context"
	"encoding/hex"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/keychain"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/SafeMPC/custody-engine/internal/infra/vault"
	"github.com/SafeMPC/custody-engine/internal/tx/chain"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChainClient 可配置的链客户端
type mockChainClient struct {
	nonce   uint64
	balance *big.Int
	tiers   *chain.FeeTiers

	broadcastErr   error
	broadcastHash  string
	broadcastCalls int

	receipts     []*chain.Receipt
	receiptCalls int

	onGetBalance func()
}

func (m *mockChainClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	return m.nonce, nil
}

func (m *mockChainClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if m.onGetBalance != nil {
		m.onGetBalance()
	}
	return new(big.Int).Set(m.balance), nil
}

func (m *mockChainClient) GetFeeTiers(ctx context.Context) (*chain.FeeTiers, error) {
	return m.tiers, nil
}

func (m *mockChainClient) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	m.broadcastCalls++
	return m.broadcastHash, m.broadcastErr
}

func (m *mockChainClient) GetReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	if m.receiptCalls >= len(m.receipts) {
		return nil, nil
	}
	r := m.receipts[m.receiptCalls]
	m.receiptCalls++
	return r, nil
}

func newMockClient() *mockChainClient {
	return &mockChainClient{
		nonce:   7,
		balance: mustBig("2000000000000000000"), // 2 ETH
		tiers: &chain.FeeTiers{
			Slow:   big.NewInt(8_000_000_000),
			Normal: big.NewInt(10_000_000_000),
			Fast:   big.NewInt(12_000_000_000),
		},
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big.Int literal " + s)
	}
	return v
}

// newTestEngine 返回引擎和钱包 w1 的出账地址，私钥已入库
func newTestEngine(t *testing.T, client chain.Client) (*Engine, string) {
	t.Helper()

	provider, err := keychain.NewProvider(keychain.ProviderConfig{
		KeystorePath:          filepath.Join(t.TempDir(), "keystore.json"),
		Passphrase:            "test-passphrase",
		AllowSoftwareFallback: true,
	})
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	v := vault.New(keychain.NewCustodian(provider, store), store)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	keyHex := hex.EncodeToString(crypto.FromECDSA(key))
	require.NoError(t, v.Store(t.Context(), custody.SecretID{
		WalletID: "w1",
		Kind:     custody.SecretKindPrivateKey,
	}, []byte(keyHex)))

	engine := NewEngine(client, v, NewHistoryStore(store), big.NewInt(1), nil)
	return engine, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func validRequest(from string) SendRequest {
	return SendRequest{
		WalletID:    "w1",
		FromAddress: from,
		ToAddress:   "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Amount:      mustBig("1000000000000000000"), // 1 ETH
		FeeLevel:    FeeLevelNormal,
	}
}

func TestSendHappyPath(t *testing.T) {
	client := newMockClient()
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.NoError(t, err)

	assert.Equal(t, StateBroadcast, result.State)
	require.NotNil(t, result.Nonce)
	assert.Equal(t, uint64(7), *result.Nonce)
	assert.Equal(t, big.NewInt(10_000_000_000), result.GasPrice)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(10_000_000_000), big.NewInt(21000)), result.Fee)
	assert.NotEmpty(t, result.SignedPayload)
	assert.NotEmpty(t, result.TxHash)
	assert.Equal(t, 1, client.broadcastCalls)

	// 留档可读回
	stored, err := engine.GetTransaction(t.Context(), "w1", result.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBroadcast, stored.State)
	assert.Equal(t, result.TxHash, stored.TxHash)
}

func TestSendInsufficientFundsBeforeSigning(t *testing.T) {
	client := newMockClient()
	client.balance = mustBig("100000000000000000") // 0.1 ETH < amount + fee
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.Error(t, err)

	assert.True(t, custody.IsKind(err, custody.ErrKindInsufficientFunds))
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, custody.ErrKindInsufficientFunds, result.FailureKind)

	// 余额不足在签名之前判定，不触碰签名密钥也不广播
	assert.Empty(t, result.SignedPayload)
	assert.Zero(t, client.broadcastCalls)
}

func TestSendAlreadyKnownIsIdempotentSuccess(t *testing.T) {
	client := newMockClient()
	client.broadcastErr = errors.New("already known")
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.NoError(t, err)
	assert.Equal(t, StateBroadcast, result.State)
}

func TestSendNonceConflict(t *testing.T) {
	client := newMockClient()
	client.broadcastErr = errors.New("nonce too low")
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.Error(t, err)

	assert.True(t, custody.IsKind(err, custody.ErrKindNonceConflict))
	assert.Equal(t, StateFailed, result.State)
	assert.False(t, result.FailureKind.Retryable())
}

func TestSendWrongKeyForAddress(t *testing.T) {
	client := newMockClient()
	engine, _ := newTestEngine(t, client)

	// 地址格式合法但与库中私钥不匹配
	req := validRequest("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	result, err := engine.Send(t.Context(), req)
	require.Error(t, err)

	assert.True(t, custody.IsKind(err, custody.ErrKindWrongKeyForAddress))
	assert.Equal(t, StateFailed, result.State)
	assert.Zero(t, client.broadcastCalls)
}

func TestSendValidation(t *testing.T) {
	client := newMockClient()
	engine, from := newTestEngine(t, client)
	ctx := t.Context()

	tests := []struct {
		name   string
		mutate func(*SendRequest)
	}{
		{"missing wallet id", func(r *SendRequest) { r.WalletID = "" }},
		{"invalid to address", func(r *SendRequest) { r.ToAddress = "not-an-address" }},
		{"bad checksum", func(r *SendRequest) { r.ToAddress = "0x8Ba1f109551bD432803012645Ac136ddd64DBa72" }},
		{"zero amount", func(r *SendRequest) { r.Amount = big.NewInt(0) }},
		{"negative amount", func(r *SendRequest) { r.Amount = big.NewInt(-1) }},
		{"unknown fee level", func(r *SendRequest) { r.FeeLevel = "turbo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(from)
			tt.mutate(&req)

			_, err := engine.Send(ctx, req)
			require.Error(t, err)
			assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))
		})
	}

	assert.Zero(t, client.broadcastCalls)
}

func TestSendToSelfWarnsButProceeds(t *testing.T) {
	client := newMockClient()
	engine, from := newTestEngine(t, client)

	req := validRequest(from)
	req.ToAddress = from

	result, err := engine.Send(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, StateBroadcast, result.State)
	assert.NotEmpty(t, result.Warning)
}

func TestSendCancelledBeforeBroadcastHasNoSideEffect(t *testing.T) {
	client := newMockClient()
	ctx, cancel := context.WithCancel(t.Context())
	// 在广播之前的最后一个挂起点之后取消
	client.onGetBalance = cancel

	engine, from := newTestEngine(t, client)

	result, err := engine.Send(ctx, validRequest(from))
	require.ErrorIs(t, err, ErrCancelledBeforeBroadcast)

	assert.Equal(t, StateSigned, result.State)
	assert.Zero(t, client.broadcastCalls)
}

func TestRebroadcastAfterTransientFailure(t *testing.T) {
	client := newMockClient()
	client.broadcastErr = errors.New("connection reset by peer")
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.Error(t, err)
	require.Equal(t, StateFailed, result.State)
	require.True(t, result.FailureKind.Retryable())
	payload := result.SignedPayload

	// 节点恢复后用同一载荷重播，不重新签名
	client.broadcastErr = nil
	replayed, err := engine.Rebroadcast(t.Context(), result)
	require.NoError(t, err)

	assert.Equal(t, StateBroadcast, replayed.State)
	assert.Equal(t, payload, replayed.SignedPayload)
	assert.Empty(t, replayed.FailureKind)
	assert.Equal(t, 2, client.broadcastCalls)
}

func TestRebroadcastRejectsNonRetryableFailure(t *testing.T) {
	client := newMockClient()
	client.broadcastErr = errors.New("nonce too low")
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.Error(t, err)

	_, err = engine.Rebroadcast(t.Context(), result)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))
}

func TestRebroadcastRequiresSignedPayload(t *testing.T) {
	client := newMockClient()
	engine, _ := newTestEngine(t, client)

	_, err := engine.Rebroadcast(t.Context(), &PendingTransaction{ID: "x", State: StateDraft})
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))
}

func TestAwaitConfirmationSuccess(t *testing.T) {
	client := newMockClient()
	client.receipts = []*chain.Receipt{nil, {Status: chain.ReceiptStatusSuccess, BlockNumber: 123}}
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.NoError(t, err)

	confirmed, err := engine.AwaitConfirmation(t.Context(), result, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, confirmed.State)
}

func TestAwaitConfirmationRevert(t *testing.T) {
	client := newMockClient()
	client.receipts = []*chain.Receipt{{Status: chain.ReceiptStatusFailed}}
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.NoError(t, err)

	failed, err := engine.AwaitConfirmation(t.Context(), result, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, StateFailed, failed.State)
}

func TestAwaitConfirmationCallerGivesUp(t *testing.T) {
	client := newMockClient()
	engine, from := newTestEngine(t, client)

	result, err := engine.Send(t.Context(), validRequest(from))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	// 一直没有回执：放弃轮询不改变交易状态
	still, err := engine.AwaitConfirmation(ctx, result, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateBroadcast, still.State)
}
