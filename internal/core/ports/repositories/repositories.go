package repositories

import (
	"context"

	"github.com/sepandbank/ledger-core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the persistence operations for Accounts.
//
// SaveAccount is the single uniqueness arbiter for account IDs: a caller that
// generated a candidate ID must treat ErrDuplicate from SaveAccount as a
// collision and retry with a fresh ID. Checking existence first and inserting
// afterwards is racy and must not be done.
//
// AdjustBalance and TransferFunds are the only balance mutation paths. Each
// implementation executes them as a single serializable unit of work holding
// exclusive rights on every touched account; a bounded lock wait that expires
// surfaces as ErrBusy.
type AccountRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountsByOwner(ctx context.Context, ownerIdentity string) ([]domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// AdjustBalance applies balance += delta. Fails with ErrInvalidAmount when
	// delta is zero, ErrInsufficientFunds when the result would be negative,
	// ErrNotFound when the account is absent.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error

	// TransferFunds debits from and credits to atomically. Fails with
	// ErrNotFound if either account is absent and ErrInsufficientFunds if the
	// source balance is below amount; on failure neither balance changes.
	TransferFunds(ctx context.Context, fromID, toID string, amount decimal.Decimal) error

	UpdateAccountOwner(ctx context.Context, accountID, newOwnerIdentity string) error

	// DeleteAccount removes an account. The root bank account is protected and
	// yields ErrProtectedAccount.
	DeleteAccount(ctx context.Context, accountID string) error

	// DeleteBusinessAccount removes an account only if its type is BUSINESS;
	// ErrNotFound otherwise.
	DeleteBusinessAccount(ctx context.Context, accountID string) error
}

// UserRepository defines persistence operations for registered users.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error)
	// FindUserByAccountID resolves the user owning the given account.
	FindUserByAccountID(ctx context.Context, accountID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// RegistrationCodeRepository defines persistence operations for single-use
// registration codes.
type RegistrationCodeRepository interface {
	SaveCode(ctx context.Context, code string) error
	// ConsumeCode atomically deletes the code if present; ErrInvalidCode when
	// absent or already consumed.
	ConsumeCode(ctx context.Context, code string) error
}

// TransactionRepository defines persistence operations for the audit trail.
// Records are append-only; there is no update or delete.
type TransactionRepository interface {
	SaveTransaction(ctx context.Context, record domain.TransactionRecord) error
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]domain.TransactionRecord, error)
}

// AdminRepository defines persistence operations for admin grants.
type AdminRepository interface {
	UpsertAdmin(ctx context.Context, grant domain.AdminGrant) error
	RemoveAdmin(ctx context.Context, identity string) error
	ListAdmins(ctx context.Context) ([]domain.AdminGrant, error)
	IsAdmin(ctx context.Context, identity string) (bool, error)
}

// RepositoryProvider bundles the concrete repositories for service wiring.
type RepositoryProvider struct {
	AccountRepo     AccountRepository
	UserRepo        UserRepository
	CodeRepo        RegistrationCodeRepository
	TransactionRepo TransactionRepository
	AdminRepo       AdminRepository
}
