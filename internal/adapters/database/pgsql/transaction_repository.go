package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	"github.com/sepandbank/ledger-core/internal/models"
)

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepository {
	return &PgxTransactionRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

// SaveTransaction appends an audit record. Rows are never updated or deleted.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, record domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (txid, from_acc, to_acc, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		record.TxID,
		record.FromAccountID,
		record.ToAccountID,
		record.Amount,
		string(record.Status),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", record.TxID, err)
	}
	return nil
}

// ListTransactionsByAccount returns the audit records touching an account,
// newest first.
func (r *PgxTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	query := `
		SELECT txid, from_acc, to_acc, amount, status, created_at
		FROM transactions
		WHERE from_acc = $1 OR to_acc = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", accountID, err)
	}
	defer rows.Close()

	records := []domain.TransactionRecord{}
	for rows.Next() {
		var m models.Transaction
		if err := rows.Scan(&m.TxID, &m.FromAccountID, &m.ToAccountID, &m.Amount, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		records = append(records, domain.TransactionRecord{
			TxID:          m.TxID,
			FromAccountID: m.FromAccountID,
			ToAccountID:   m.ToAccountID,
			Amount:        m.Amount,
			Status:        domain.TransactionStatus(m.Status),
			CreatedAt:     m.CreatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return records, nil
}
