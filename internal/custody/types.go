package custody

import "fmt"

// SecretKind 机密类型
type SecretKind string

const (
	SecretKindMnemonic   SecretKind = "mnemonic"
	SecretKindPrivateKey SecretKind = "private_key"
	SecretKindBackup     SecretKind = "backup"
)

// Valid 检查机密类型是否合法
func (k SecretKind) Valid() bool {
	switch k {
	case SecretKindMnemonic, SecretKindPrivateKey, SecretKindBackup:
		return true
	}
	return false
}

// SecretID 机密标识：每个 (walletID, kind) 组合最多存在一条记录
type SecretID struct {
	WalletID string
	Kind     SecretKind
}

// StorageKey 返回持久化存储中使用的稳定键
func (id SecretID) StorageKey() string {
	return fmt.Sprintf("secret:%s:%s", id.WalletID, id.Kind)
}

func (id SecretID) String() string {
	return id.WalletID + "/" + string(id.Kind)
}

// Action 需要授权的敏感操作
type Action string

const (
	ActionViewWallet     Action = "view_wallet"
	ActionSend           Action = "send"
	ActionViewPrivateKey Action = "view_private_key"
	ActionCreateBackup   Action = "create_backup"
)
