package types

import (
	"math/big"

	"github.com/pkg/errors"
)

// PostSendTransactionPayload 发送交易请求。Amount 为十进制字符串（最小单位）。
type PostSendTransactionPayload struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      string `json:"amount"`
	FeeLevel    string `json:"fee_level"`
	Note        string `json:"note,omitempty"`
}

// Validate validates PostSendTransactionPayload
func (m *PostSendTransactionPayload) Validate() error {
	if m.FromAddress == "" || m.ToAddress == "" {
		return errors.New("from_address and to_address are required")
	}
	if m.Amount == "" {
		return errors.New("amount is required")
	}
	if _, ok := new(big.Int).SetString(m.Amount, 10); !ok {
		return errors.New("amount must be a decimal integer string")
	}
	return nil
}

// AmountBig 解析交易金额
func (m *PostSendTransactionPayload) AmountBig() *big.Int {
	amount, _ := new(big.Int).SetString(m.Amount, 10)
	return amount
}

// TransactionResponse 交易状态响应
type TransactionResponse struct {
	ID            string  `json:"id"`
	WalletID      string  `json:"wallet_id"`
	FromAddress   string  `json:"from_address"`
	ToAddress     string  `json:"to_address"`
	Amount        string  `json:"amount"`
	FeeLevel      string  `json:"fee_level"`
	Fee           string  `json:"fee,omitempty"`
	Nonce         *uint64 `json:"nonce,omitempty"`
	TxHash        string  `json:"tx_hash,omitempty"`
	State         string  `json:"state"`
	FailureKind   string  `json:"failure_kind,omitempty"`
	FailureDetail string  `json:"failure_detail,omitempty"`
	Warning       string  `json:"warning,omitempty"`
	Note          string  `json:"note,omitempty"`
}

// GetBalanceResponse 余额响应
type GetBalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}
