package domain

import "time"

type TransactionType string

const (
	TransactionTypeMint      TransactionType = "MINT"
	TransactionTypeRedeem    TransactionType = "REDEEM"
	TransactionTypeTransfer  TransactionType = "TRANSFER"
	TransactionTypeEscrowIn  TransactionType = "ESCROW_IN"
	TransactionTypeEscrowOut TransactionType = "ESCROW_OUT"
)

// LedgerTransaction is one balance movement on a single account.
type LedgerTransaction struct {
	ID            int64           `json:"id"`
	AccountID     string          `json:"account_id"`
	Amount        int64           `json:"amount"` // positive for credit, negative for debit
	Type          TransactionType `json:"type"`
	Counterparty  string          `json:"counterparty,omitempty"`
	PoolPurpose   PoolPurpose     `json:"pool_purpose,omitempty"`
	PropertyID    int64           `json:"property_id,omitempty"`
	ApplicationID int64           `json:"application_id,omitempty"`
	DisputeID     int64           `json:"dispute_id,omitempty"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountBalance pairs an account with its current credit balance.
type AccountBalance struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

// LedgerTotals is one consistent reading of the conservation check.
type LedgerTotals struct {
	Supply   int64 `json:"supply"`
	Accounts int64 `json:"accounts"`
	Escrowed int64 `json:"escrowed"`
}

// Balanced reports whether every minted credit is held by an account or a
// pool.
func (t LedgerTotals) Balanced() bool {
	return t.Supply == t.Accounts+t.Escrowed
}
