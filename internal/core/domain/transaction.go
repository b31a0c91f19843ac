package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus records the outcome of an attempted transfer.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "Completed"
	StatusFailed    TransactionStatus = "Failed"
)

// TransactionRecord is an append-only audit entry. One record is written for
// every attempted transfer, successful or not, and is never mutated afterwards.
type TransactionRecord struct {
	TxID          string            `json:"txID"` // e.g. "TX-9F3A21BC", independent of account IDs
	FromAccountID string            `json:"fromAccountID"`
	ToAccountID   string            `json:"toAccountID"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}
