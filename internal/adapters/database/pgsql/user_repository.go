package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	"github.com/sepandbank/ledger-core/internal/models"
)

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepository {
	return &PgxUserRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.UserRepository = (*PgxUserRepository)(nil)

func toDomainUser(m models.User) domain.User {
	return domain.User{
		Identity:          m.Identity,
		Username:          m.Username,
		FullName:          m.FullName,
		PersonalAccountID: m.PersonalAccountID,
	}
}

// SaveUser inserts a new user record.
func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (identity, username, full_name, personal_account_id)
		VALUES ($1, $2, $3, $4);
	`
	_, err := r.Pool.Exec(ctx, query, user.Identity, user.Username, user.FullName, user.PersonalAccountID)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: user %s already exists", apperrors.ErrDuplicate, user.Identity)
		}
		return fmt.Errorf("failed to save user %s: %w", user.Identity, err)
	}
	return nil
}

// FindUserByIdentity retrieves a user by caller identity.
func (r *PgxUserRepository) FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	query := `
		SELECT identity, username, full_name, personal_account_id
		FROM users
		WHERE identity = $1;
	`
	var modelUser models.User
	err := r.Pool.QueryRow(ctx, query, identity).Scan(
		&modelUser.Identity,
		&modelUser.Username,
		&modelUser.FullName,
		&modelUser.PersonalAccountID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user %s: %w", identity, err)
	}
	domainUser := toDomainUser(modelUser)
	return &domainUser, nil
}

// FindUserByAccountID resolves the user owning the given account.
func (r *PgxUserRepository) FindUserByAccountID(ctx context.Context, accountID string) (*domain.User, error) {
	query := `
		SELECT u.identity, u.username, u.full_name, u.personal_account_id
		FROM accounts a
		JOIN users u ON u.identity = a.owner_identity
		WHERE a.account_id = $1;
	`
	var modelUser models.User
	err := r.Pool.QueryRow(ctx, query, accountID).Scan(
		&modelUser.Identity,
		&modelUser.Username,
		&modelUser.FullName,
		&modelUser.PersonalAccountID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user for account %s: %w", accountID, err)
	}
	domainUser := toDomainUser(modelUser)
	return &domainUser, nil
}

// ListUsers lists registered users ordered by full name.
func (r *PgxUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT identity, username, full_name, personal_account_id
		FROM users
		ORDER BY full_name NULLS LAST;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var modelUser models.User
		if err := rows.Scan(
			&modelUser.Identity,
			&modelUser.Username,
			&modelUser.FullName,
			&modelUser.PersonalAccountID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, toDomainUser(modelUser))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
