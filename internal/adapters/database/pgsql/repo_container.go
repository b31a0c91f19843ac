package pgsql

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the pgsql repositories. lockWait bounds how long
// balance mutations wait on contended rows before reporting Busy.
func NewRepositoryProvider(dbPool *pgxpool.Pool, lockWait time.Duration) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     newPgxAccountRepository(dbPool, lockWait),
		UserRepo:        newPgxUserRepository(dbPool),
		CodeRepo:        newPgxRegistrationCodeRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		AdminRepo:       newPgxAdminRepository(dbPool),
	}
}
