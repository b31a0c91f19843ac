package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
)

type PgxRegistrationCodeRepository struct {
	BaseRepository
}

func newPgxRegistrationCodeRepository(pool *pgxpool.Pool) portsrepo.RegistrationCodeRepository {
	return &PgxRegistrationCodeRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.RegistrationCodeRepository = (*PgxRegistrationCodeRepository)(nil)

// SaveCode inserts a new registration code.
func (r *PgxRegistrationCodeRepository) SaveCode(ctx context.Context, code string) error {
	_, err := r.Pool.Exec(ctx, `INSERT INTO register_codes (code) VALUES ($1)`, code)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: code already exists", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save registration code: %w", err)
	}
	return nil
}

// ConsumeCode deletes the code if it is live. The single DELETE is the
// atomicity boundary: of two concurrent redemptions only one sees a row.
func (r *PgxRegistrationCodeRepository) ConsumeCode(ctx context.Context, code string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM register_codes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to consume registration code: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInvalidCode
	}
	return nil
}
