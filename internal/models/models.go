package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account mirrors the accounts table.
type Account struct {
	AccountID     string          `db:"account_id"`
	OwnerIdentity string          `db:"owner_identity"`
	Type          string          `db:"type"` // 'BANK' | 'PERSONAL' | 'BUSINESS'
	Name          string          `db:"name"`
	Balance       decimal.Decimal `db:"balance"`
}

// User mirrors the users table.
type User struct {
	Identity          string `db:"identity"`
	Username          string `db:"username"`
	FullName          string `db:"full_name"`
	PersonalAccountID string `db:"personal_account_id"`
}

// Transaction mirrors the transactions table. Rows are append-only.
type Transaction struct {
	TxID          string          `db:"txid"`
	FromAccountID string          `db:"from_acc"`
	ToAccountID   string          `db:"to_acc"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}

// AdminGrant mirrors the admins table.
type AdminGrant struct {
	Identity    string `db:"identity"`
	DisplayName string `db:"name"`
}
