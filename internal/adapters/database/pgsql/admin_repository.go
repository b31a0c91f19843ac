package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
)

type PgxAdminRepository struct {
	BaseRepository
}

func newPgxAdminRepository(pool *pgxpool.Pool) portsrepo.AdminRepository {
	return &PgxAdminRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.AdminRepository = (*PgxAdminRepository)(nil)

// UpsertAdmin inserts or refreshes an admin grant.
func (r *PgxAdminRepository) UpsertAdmin(ctx context.Context, grant domain.AdminGrant) error {
	query := `
		INSERT INTO admins (identity, name)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET name = EXCLUDED.name;
	`
	if _, err := r.Pool.Exec(ctx, query, grant.Identity, grant.DisplayName); err != nil {
		return fmt.Errorf("failed to upsert admin %s: %w", grant.Identity, err)
	}
	return nil
}

// RemoveAdmin deletes an admin grant.
func (r *PgxAdminRepository) RemoveAdmin(ctx context.Context, identity string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM admins WHERE identity = $1`, identity)
	if err != nil {
		return fmt.Errorf("failed to remove admin %s: %w", identity, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListAdmins lists current grants ordered by display name.
func (r *PgxAdminRepository) ListAdmins(ctx context.Context) ([]domain.AdminGrant, error) {
	rows, err := r.Pool.Query(ctx, `SELECT identity, name FROM admins ORDER BY name NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	grants := []domain.AdminGrant{}
	for rows.Next() {
		var grant domain.AdminGrant
		if err := rows.Scan(&grant.Identity, &grant.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan admin row: %w", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin rows: %w", err)
	}
	return grants, nil
}

// IsAdmin reports whether an identity holds an admin grant.
func (r *PgxAdminRepository) IsAdmin(ctx context.Context, identity string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE identity = $1)`, identity).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin grant for %s: %w", identity, err)
	}
	return exists, nil
}
