package tx

import (
	"math/big"
	"testing"
	"time"

	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStoreRoundTrip(t *testing.T) {
	h := NewHistoryStore(storage.NewMemoryStore())
	ctx := t.Context()

	record := &PendingTransaction{
		ID:          "tx-1",
		WalletID:    "w1",
		FromAddress: "0x0000000000000000000000000000000000000001",
		ToAddress:   "0x0000000000000000000000000000000000000002",
		Amount:      big.NewInt(1000),
		FeeLevel:    FeeLevelNormal,
		State:       StateBroadcast,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, h.Save(ctx, record))

	loaded, err := h.Get(ctx, "w1", "tx-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, record.Amount, loaded.Amount)
	assert.Equal(t, StateBroadcast, loaded.State)

	missing, err := h.Get(ctx, "w1", "tx-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistoryStoreListNewestFirst(t *testing.T) {
	h := NewHistoryStore(storage.NewMemoryStore())
	ctx := t.Context()

	base := time.Now()
	for i, id := range []string{"tx-a", "tx-b", "tx-c"} {
		require.NoError(t, h.Save(ctx, &PendingTransaction{
			ID:        id,
			WalletID:  "w1",
			Amount:    big.NewInt(int64(i)),
			State:     StateConfirmed,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// 其他钱包的记录不得混入
	require.NoError(t, h.Save(ctx, &PendingTransaction{
		ID: "tx-other", WalletID: "w2", Amount: big.NewInt(1), State: StateConfirmed, CreatedAt: base,
	}))

	records, err := h.List(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "tx-c", records[0].ID)
	assert.Equal(t, "tx-a", records[2].ID)
}
