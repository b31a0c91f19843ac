package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType classifies an account within the ledger.
type AccountType string

const (
	Bank     AccountType = "BANK"
	Personal AccountType = "PERSONAL"
	Business AccountType = "BUSINESS"
)

// RootAccountID is the reserved identifier of the single central bank account.
// It is seeded at startup and can never be deleted or re-allocated.
const RootAccountID = "ACC-001"

// Account represents a monetary account within the core domain.
// This is the primary representation used by services.
type Account struct {
	AccountID     string          `json:"accountID"`     // e.g. "ACC-483920", "BUS-17402"
	OwnerIdentity string          `json:"ownerIdentity"` // resolved caller identity of the controlling user
	Type          AccountType     `json:"type"`          // BANK, PERSONAL or BUSINESS; immutable after creation
	Name          string          `json:"name"`          // display label
	Balance       decimal.Decimal `json:"balance"`       // never negative
}

// IsRoot reports whether this is the central bank account.
func (a Account) IsRoot() bool {
	return a.AccountID == RootAccountID
}
