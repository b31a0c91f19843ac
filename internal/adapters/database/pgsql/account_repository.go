package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	"github.com/sepandbank/ledger-core/internal/models"
	"github.com/shopspring/decimal"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool, lockWait time.Duration) portsrepo.AccountRepository {
	return &PgxAccountRepository{BaseRepository{Pool: pool, LockWait: lockWait}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepository
var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// Helper to convert domain.Account to models.Account for DB storage
func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:     d.AccountID,
		OwnerIdentity: d.OwnerIdentity,
		Type:          string(d.Type),
		Name:          d.Name,
		Balance:       d.Balance,
	}
}

// Helper to convert models.Account from DB to domain.Account
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:     m.AccountID,
		OwnerIdentity: m.OwnerIdentity,
		Type:          domain.AccountType(m.Type),
		Name:          m.Name,
		Balance:       m.Balance,
	}
}

// SaveAccount inserts a new account. The unique key on account_id makes this
// the arbiter for ID allocation: a collision comes back as ErrDuplicate and
// the allocator retries with a fresh candidate.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	modelAcc := toModelAccount(account)

	query := `
		INSERT INTO accounts (account_id, owner_identity, type, name, balance)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.OwnerIdentity,
		modelAcc.Type,
		modelAcc.Name,
		modelAcc.Balance,
	)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, modelAcc.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT account_id, owner_identity, type, name, balance
		FROM accounts
		WHERE account_id = $1;
	`
	var modelAcc models.Account
	err := r.Pool.QueryRow(ctx, query, accountID).Scan(
		&modelAcc.AccountID,
		&modelAcc.OwnerIdentity,
		&modelAcc.Type,
		&modelAcc.Name,
		&modelAcc.Balance,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}

	domainAcc := toDomainAccount(modelAcc)
	return &domainAcc, nil
}

// FindAccountsByOwner lists the accounts controlled by an identity.
func (r *PgxAccountRepository) FindAccountsByOwner(ctx context.Context, ownerIdentity string) ([]domain.Account, error) {
	query := `
		SELECT account_id, owner_identity, type, name, balance
		FROM accounts
		WHERE owner_identity = $1
		ORDER BY account_id;
	`
	rows, err := r.Pool.Query(ctx, query, ownerIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for owner %s: %w", ownerIdentity, err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// ListAccounts lists every account in the ledger.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `
		SELECT account_id, owner_identity, type, name, balance
		FROM accounts
		ORDER BY account_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func scanAccounts(rows pgx.Rows) ([]domain.Account, error) {
	accounts := []domain.Account{}
	for rows.Next() {
		var modelAcc models.Account
		if err := rows.Scan(
			&modelAcc.AccountID,
			&modelAcc.OwnerIdentity,
			&modelAcc.Type,
			&modelAcc.Name,
			&modelAcc.Balance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, toDomainAccount(modelAcc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// lockAccounts acquires row locks on the given accounts inside tx, always in
// lexicographic account-id order so two units of work touching the same pair
// can never deadlock. Returns the locked balances keyed by account ID.
func (r *PgxAccountRepository) lockAccounts(ctx context.Context, tx pgx.Tx, accountIDs ...string) (map[string]decimal.Decimal, error) {
	ordered := append([]string(nil), accountIDs...)
	sort.Strings(ordered)

	balances := make(map[string]decimal.Decimal, len(ordered))
	for _, id := range ordered {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_id = $1 FOR UPDATE`, id).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.ErrNotFound
			}
			if translated := translateError(err); errors.Is(translated, apperrors.ErrBusy) {
				return nil, apperrors.ErrBusy
			}
			return nil, fmt.Errorf("failed to lock account %s: %w", id, err)
		}
		balances[id] = balance
	}
	return balances, nil
}

// AdjustBalance applies balance += delta under a row lock, holding the
// non-negative invariant.
func (r *PgxAccountRepository) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return fmt.Errorf("%w: amount must be non-zero", apperrors.ErrInvalidAmount)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return err
	}

	balances, err := r.lockAccounts(ctx, tx, accountID)
	if err != nil {
		return err
	}

	newBalance := balances[accountID].Add(delta)
	if newBalance.IsNegative() {
		return apperrors.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE account_id = $2`, newBalance, accountID); err != nil {
		return fmt.Errorf("failed to update balance of %s: %w", accountID, err)
	}
	return r.Commit(ctx, tx)
}

// TransferFunds moves amount between two accounts. Both row locks are held
// for the whole unit of work; the debit and credit commit together or not at
// all.
func (r *PgxAccountRepository) TransferFunds(ctx context.Context, fromID, toID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	if fromID == toID {
		return apperrors.ErrSelfTransfer
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return err
	}

	balances, err := r.lockAccounts(ctx, tx, fromID, toID)
	if err != nil {
		return err
	}

	if balances[fromID].LessThan(amount) {
		return apperrors.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE account_id = $2`, amount, fromID); err != nil {
		return fmt.Errorf("failed to debit account %s: %w", fromID, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE account_id = $2`, amount, toID); err != nil {
		return fmt.Errorf("failed to credit account %s: %w", toID, err)
	}
	return r.Commit(ctx, tx)
}

// UpdateAccountOwner reassigns an account to a new owner identity.
func (r *PgxAccountRepository) UpdateAccountOwner(ctx context.Context, accountID, newOwnerIdentity string) error {
	cmdTag, err := r.Pool.Exec(ctx, `UPDATE accounts SET owner_identity = $1 WHERE account_id = $2`, newOwnerIdentity, accountID)
	if err != nil {
		return fmt.Errorf("failed to update owner of %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteAccount removes an account; the root bank account is protected. The
// owning user's row is left in place, matching the schema's lack of a foreign
// key from users to accounts.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	account, err := r.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsRoot() {
		return apperrors.ErrProtectedAccount
	}
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteBusinessAccount removes an account only when its type is BUSINESS.
func (r *PgxAccountRepository) DeleteBusinessAccount(ctx context.Context, accountID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1 AND type = $2`, accountID, string(domain.Business))
	if err != nil {
		return fmt.Errorf("failed to delete business account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
