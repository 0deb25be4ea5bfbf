package tx

import (
	"math/big"
	"time"

	"github.com/SafeMPC/custody-engine/internal/custody"
)

// State 交易生命周期状态
type State string

const (
	StateDraft         State = "draft"
	StateNonceAssigned State = "nonce_assigned"
	StateFeeEstimated  State = "fee_estimated"
	StateSigned        State = "signed"
	StateBroadcast     State = "broadcast"
	StateConfirmed     State = "confirmed"
	StateFailed        State = "failed"
)

// Terminal 终态交易不可再变更，仅保留作历史
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// FeeLevel 费用档位
type FeeLevel string

const (
	FeeLevelSlow   FeeLevel = "slow"
	FeeLevelNormal FeeLevel = "normal"
	FeeLevelFast   FeeLevel = "fast"
)

// Valid 检查费用档位是否合法
func (l FeeLevel) Valid() bool {
	switch l {
	case FeeLevelSlow, FeeLevelNormal, FeeLevelFast:
		return true
	}
	return false
}

// SendRequest 一次转账请求
type SendRequest struct {
	WalletID    string
	FromAddress string
	ToAddress   string
	Amount      *big.Int
	FeeLevel    FeeLevel
	Note        string
}

// PendingTransaction 单笔出账交易。状态推进过程中原地变更，
// 进入终态后不再修改。
type PendingTransaction struct {
	ID            string            `json:"id"`
	WalletID      string            `json:"wallet_id"`
	FromAddress   string            `json:"from_address"`
	ToAddress     string            `json:"to_address"`
	Amount        *big.Int          `json:"amount"`
	FeeLevel      FeeLevel          `json:"fee_level"`
	Nonce         *uint64           `json:"nonce,omitempty"`
	GasPrice      *big.Int          `json:"gas_price,omitempty"`
	Fee           *big.Int          `json:"fee,omitempty"`
	SignedPayload []byte            `json:"signed_payload,omitempty"`
	TxHash        string            `json:"tx_hash,omitempty"`
	State         State             `json:"state"`
	FailureKind   custody.ErrorKind `json:"failure_kind,omitempty"`
	FailureDetail string            `json:"failure_detail,omitempty"`
	Warning       string            `json:"warning,omitempty"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// RequiredTotal 转账额加手续费
func (t *PendingTransaction) RequiredTotal() *big.Int {
	total := new(big.Int).Set(t.Amount)
	if t.Fee != nil {
		total.Add(total, t.Fee)
	}
	return total
}
