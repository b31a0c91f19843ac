package services

import (
	"context"

	"github.com/sepandbank/ledger-core/internal/core/domain"
	"github.com/sepandbank/ledger-core/internal/dto"
	"github.com/shopspring/decimal"
)

// AuthorizerSvc classifies caller identities into roles and gates privileged
// operations. Classification order: configured owner identity, then admin
// grant, then registered user, then anonymous.
type AuthorizerSvc interface {
	Classify(ctx context.Context, identity string) (domain.Role, error)
	// Require returns ErrUnauthorized when the identity's role is below min.
	Require(ctx context.Context, identity string, min domain.Role) error
}

// LedgerSvc is the single entry point consumed by the external command layer.
// Every method takes the already-resolved caller identity; authorization is
// checked once, up front, before any store is touched.
type LedgerSvc interface {
	// Self-service operations.
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResult, error)
	GetBalance(ctx context.Context, caller, accountID string) (decimal.Decimal, error)
	ListAccounts(ctx context.Context, caller string) ([]domain.Account, error)
	Transfer(ctx context.Context, caller string, req dto.TransferRequest) (*domain.TransactionRecord, error)
	ListStatement(ctx context.Context, caller, accountID string) ([]domain.TransactionRecord, error)
	GetUserByAccount(ctx context.Context, caller, accountID string) (*domain.User, error)

	// Admin operations.
	IssueCode(ctx context.Context, caller, code string) error
	CreateBusinessAccount(ctx context.Context, caller, ownerIdentity, name string) (*domain.Account, error)
	TransferOwnership(ctx context.Context, caller, accountID, newOwnerIdentity string) error
	AdjustRootBalance(ctx context.Context, caller string, delta decimal.Decimal) error
	TransferFromRoot(ctx context.Context, caller, toAccountID string, amount decimal.Decimal) (*domain.TransactionRecord, error)
	ForceWithdraw(ctx context.Context, caller, fromAccountID string, amount decimal.Decimal) (*domain.TransactionRecord, error)
	CloseAccount(ctx context.Context, caller, accountID string) error
	CloseBusinessAccount(ctx context.Context, caller, accountID string) error
	ListUsers(ctx context.Context, caller string) ([]domain.User, error)
	ListAllAccounts(ctx context.Context, caller string) ([]domain.Account, error)

	// Owner operations.
	GrantAdmin(ctx context.Context, caller, identity, displayName string) error
	RevokeAdmin(ctx context.Context, caller, identity string) error
	ListAdmins(ctx context.Context, caller string) ([]domain.AdminGrant, error)
}
