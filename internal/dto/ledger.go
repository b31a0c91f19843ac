package dto

import (
	"github.com/shopspring/decimal"
)

// RegisterRequest carries the arguments of a self-service registration.
type RegisterRequest struct {
	Identity string `json:"identity" validate:"required"`
	Username string `json:"username"`
	FullName string `json:"fullName" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// RegisterResult is returned on successful registration.
type RegisterResult struct {
	AccountID string `json:"accountID"` // the new PERSONAL account
}

// TransferRequest carries the arguments of a user transfer.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountID" validate:"required"`
	ToAccountID   string          `json:"toAccountID" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}
