package tx

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/pkg/errors"
)

const historyKeyPrefix = "txhistory:"

// HistoryStore 终态交易留档，供审计和历史列表使用
type HistoryStore struct {
	store storage.KVStore
}

// NewHistoryStore 创建交易历史存储
func NewHistoryStore(store storage.KVStore) *HistoryStore {
	return &HistoryStore{store: store}
}

func historyKey(walletID, txID string) string {
	return historyKeyPrefix + walletID + ":" + txID
}

// Save 写入一条交易记录（同 id 覆盖）
func (h *HistoryStore) Save(ctx context.Context, t *PendingTransaction) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "failed to marshal transaction record")
	}
	if err := h.store.Put(ctx, historyKey(t.WalletID, t.ID), data); err != nil {
		return errors.Wrap(err, "failed to persist transaction record")
	}
	return nil
}

// Get 按 id 读取交易记录；不存在时返回 (nil, nil)
func (h *HistoryStore) Get(ctx context.Context, walletID, txID string) (*PendingTransaction, error) {
	data, err := h.store.Get(ctx, historyKey(walletID, txID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load transaction record")
	}
	if data == nil {
		return nil, nil
	}

	var t PendingTransaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal transaction record")
	}
	return &t, nil
}

// List 列出某钱包的全部留档交易，按创建时间倒序
func (h *HistoryStore) List(ctx context.Context, walletID string) ([]*PendingTransaction, error) {
	keys, err := h.store.List(ctx, historyKeyPrefix+walletID+":")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list transaction records")
	}

	records := make([]*PendingTransaction, 0, len(keys))
	for _, key := range keys {
		data, err := h.store.Get(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load transaction record")
		}
		if data == nil {
			continue
		}
		var t PendingTransaction
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal transaction record")
		}
		records = append(records, &t)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}
