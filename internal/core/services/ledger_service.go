package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/sepandbank/ledger-core/internal/core/ports/services"
	"github.com/sepandbank/ledger-core/internal/dto"
	"github.com/shopspring/decimal"
)

// ledgerServiceImpl implements the LedgerSvc interface.
type ledgerServiceImpl struct {
	BaseService
	repos       portsrepo.RepositoryProvider
	authz       portssvc.AuthorizerSvc
	validate    *validator.Validate
	busyRetries int
	busyBackoff time.Duration
}

// ServiceOption is a functional option for configuring the ledger service
type ServiceOption func(*ledgerServiceImpl)

// WithBusyRetries sets how many extra attempts a transfer or adjustment gets
// when the store reports transient contention. Only ErrBusy is retried.
func WithBusyRetries(n int) ServiceOption {
	return func(s *ledgerServiceImpl) {
		if n >= 0 {
			s.busyRetries = n
		}
	}
}

// WithBusyBackoff sets the pause between contention retries.
func WithBusyBackoff(d time.Duration) ServiceOption {
	return func(s *ledgerServiceImpl) {
		if d > 0 {
			s.busyBackoff = d
		}
	}
}

// NewLedgerService creates the ledger orchestrator with the provided options.
func NewLedgerService(repos portsrepo.RepositoryProvider, authz portssvc.AuthorizerSvc, options ...ServiceOption) portssvc.LedgerSvc {
	svc := &ledgerServiceImpl{
		repos:       repos,
		authz:       authz,
		validate:    validator.New(),
		busyRetries: 2,
		busyBackoff: 50 * time.Millisecond,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure ledgerServiceImpl implements the LedgerSvc interface
var _ portssvc.LedgerSvc = (*ledgerServiceImpl)(nil)

// normalizeAccountID upper-cases user-supplied account IDs so lookups match
// the stored form.
func normalizeAccountID(accountID string) string {
	return strings.ToUpper(strings.TrimSpace(accountID))
}

// requireAccountUse allows the operation when the caller owns the account or
// holds at least the Admin role.
func (s *ledgerServiceImpl) requireAccountUse(ctx context.Context, caller, accountID string) (*domain.Account, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleUser); err != nil {
		return nil, err
	}
	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerIdentity == caller {
		return account, nil
	}
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return account, nil
}

// executeTransfer runs the atomic two-leg move with a bounded retry on
// transient contention, then appends exactly one audit record reflecting the
// outcome. A failed audit write is logged and never rolls back the transfer.
func (s *ledgerServiceImpl) executeTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (*domain.TransactionRecord, error) {
	var transferErr error
	for attempt := 0; ; attempt++ {
		transferErr = s.repos.AccountRepo.TransferFunds(ctx, fromID, toID, amount)
		if !errors.Is(transferErr, apperrors.ErrBusy) || attempt >= s.busyRetries {
			break
		}
		s.LogDebug(ctx, "Transfer hit contention, retrying",
			slog.String("from", fromID),
			slog.String("to", toID),
			slog.Int("attempt", attempt+1))
		select {
		case <-time.After(s.busyBackoff):
		case <-ctx.Done():
			transferErr = ctx.Err()
		}
		if transferErr != nil && !errors.Is(transferErr, apperrors.ErrBusy) {
			break
		}
	}

	record := domain.TransactionRecord{
		TxID:          NewTxID(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Status:        domain.StatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	if transferErr != nil {
		record.Status = domain.StatusFailed
	}

	if err := s.repos.TransactionRepo.SaveTransaction(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to write audit record",
			slog.String("txid", record.TxID),
			slog.String("from", fromID),
			slog.String("to", toID))
	}

	if transferErr != nil {
		return &record, transferErr
	}
	s.LogInfo(ctx, "Transfer completed",
		slog.String("txid", record.TxID),
		slog.String("from", fromID),
		slog.String("to", toID),
		slog.String("amount", amount.String()))
	return &record, nil
}

// validateTransferArgs applies the checks shared by all transfer variants.
func validateTransferArgs(fromID, toID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	if fromID == toID {
		return apperrors.ErrSelfTransfer
	}
	return nil
}

func (s *ledgerServiceImpl) Transfer(ctx context.Context, caller string, req dto.TransferRequest) (*domain.TransactionRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	fromID := normalizeAccountID(req.FromAccountID)
	toID := normalizeAccountID(req.ToAccountID)
	if err := validateTransferArgs(fromID, toID, req.Amount); err != nil {
		return nil, err
	}

	// The caller must control the source account; the destination only has to exist.
	if _, err := s.requireAccountUse(ctx, caller, fromID); err != nil {
		return nil, err
	}

	return s.executeTransfer(ctx, fromID, toID, req.Amount)
}

func (s *ledgerServiceImpl) GetBalance(ctx context.Context, caller, accountID string) (decimal.Decimal, error) {
	account, err := s.requireAccountUse(ctx, caller, normalizeAccountID(accountID))
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *ledgerServiceImpl) ListAccounts(ctx context.Context, caller string) ([]domain.Account, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleUser); err != nil {
		return nil, err
	}
	return s.repos.AccountRepo.FindAccountsByOwner(ctx, caller)
}

func (s *ledgerServiceImpl) ListStatement(ctx context.Context, caller, accountID string) ([]domain.TransactionRecord, error) {
	accountID = normalizeAccountID(accountID)
	if _, err := s.requireAccountUse(ctx, caller, accountID); err != nil {
		return nil, err
	}
	return s.repos.TransactionRepo.ListTransactionsByAccount(ctx, accountID)
}

func (s *ledgerServiceImpl) GetUserByAccount(ctx context.Context, caller, accountID string) (*domain.User, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleUser); err != nil {
		return nil, err
	}
	return s.repos.UserRepo.FindUserByAccountID(ctx, normalizeAccountID(accountID))
}
