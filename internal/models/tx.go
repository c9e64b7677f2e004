package models

type TransactionStatus string

type AssetType string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusExecuted TransactionStatus = "executed"
	TransactionStatusExpired  TransactionStatus = "expired"
)

const (
	AssetTypeNative AssetType = "native"
	AssetTypeERC20  AssetType = "erc20"
)

// LedgerTransaction is the on-chain view of a proposal as returned by the
// wallet contract's transaction list. The mirror reconciles toward it,
// never the other way around.
type LedgerTransaction struct {
	To            string `json:"to"`
	Value         string `json:"value"`
	Data          string `json:"data"`
	Executed      bool   `json:"executed"`
	Confirmations uint64 `json:"confirmations"`
}

// TransferCall is the codec output handed to the ledger's propose
// operation: calldata plus native value, both in wire form.
type TransferCall struct {
	To    string `json:"to"`
	Value string `json:"value"` // decimal string, smallest unit
	Data  string `json:"data"`  // 0x-prefixed calldata, empty for native transfers
}

// NotificationPayload is the per-recipient message handed to the email
// collaborator. Rendering and delivery live outside this engine.
type NotificationPayload struct {
	WalletAddress   string `json:"wallet_address"`
	WalletShort     string `json:"wallet_short"`
	Network         string `json:"network"`
	TxIndex         uint64 `json:"tx_index"`
	To              string `json:"to"`
	ToShort         string `json:"to_short"`
	FormattedAmount string `json:"formatted_amount"`
	SubmittedBy     string `json:"submitted_by"`
	ExplorerURL     string `json:"explorer_url,omitempty"`
}

// NotificationResult aggregates a dispatch run. Individual failures are
// counted, never fatal.
type NotificationResult struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}
