package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// IssueCode creates a new single-use registration code.
func (s *ledgerServiceImpl) IssueCode(ctx context.Context, caller, code string) error {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code cannot be empty", apperrors.ErrValidation)
	}
	return s.repos.CodeRepo.SaveCode(ctx, code)
}

// CreateBusinessAccount allocates a BUSINESS account for the given owner with
// a zero starting balance. No registration code is involved; the Admin gate
// replaces it.
func (s *ledgerServiceImpl) CreateBusinessAccount(ctx context.Context, caller, ownerIdentity, name string) (*domain.Account, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return nil, err
	}

	account := domain.Account{
		OwnerIdentity: ownerIdentity,
		Type:          domain.Business,
		Name:          name,
		Balance:       decimal.Zero,
	}
	accountID, err := allocateAccount(ctx, BusinessAccountPrefix, BusinessAccountDigits, func(ctx context.Context, accountID string) error {
		account.AccountID = accountID
		return s.repos.AccountRepo.SaveAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	account.AccountID = accountID

	s.LogInfo(ctx, "Business account created",
		slog.String("account_id", accountID),
		slog.String("owner", ownerIdentity))
	return &account, nil
}

// TransferOwnership reassigns an account to a new owner identity. The command
// layer resolves the new owner to a registered user before calling.
func (s *ledgerServiceImpl) TransferOwnership(ctx context.Context, caller, accountID, newOwnerIdentity string) error {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repos.AccountRepo.UpdateAccountOwner(ctx, normalizeAccountID(accountID), newOwnerIdentity)
}

// AdjustRootBalance applies a bank-issued credit or debit directly to the
// central account. The non-negative balance invariant still holds.
func (s *ledgerServiceImpl) AdjustRootBalance(ctx context.Context, caller string, delta decimal.Decimal) error {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repos.AccountRepo.AdjustBalance(ctx, domain.RootAccountID, delta)
}

// TransferFromRoot pays out from the central account, audited like any transfer.
func (s *ledgerServiceImpl) TransferFromRoot(ctx context.Context, caller, toAccountID string, amount decimal.Decimal) (*domain.TransactionRecord, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	toID := normalizeAccountID(toAccountID)
	if err := validateTransferArgs(domain.RootAccountID, toID, amount); err != nil {
		return nil, err
	}
	return s.executeTransfer(ctx, domain.RootAccountID, toID, amount)
}

// ForceWithdraw pulls funds out of an arbitrary account back into the central
// account, audited like any transfer.
func (s *ledgerServiceImpl) ForceWithdraw(ctx context.Context, caller, fromAccountID string, amount decimal.Decimal) (*domain.TransactionRecord, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	fromID := normalizeAccountID(fromAccountID)
	if err := validateTransferArgs(fromID, domain.RootAccountID, amount); err != nil {
		return nil, err
	}
	return s.executeTransfer(ctx, fromID, domain.RootAccountID, amount)
}

// CloseAccount deletes an account. The root bank account is protected.
func (s *ledgerServiceImpl) CloseAccount(ctx context.Context, caller, accountID string) error {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repos.AccountRepo.DeleteAccount(ctx, normalizeAccountID(accountID))
}

// CloseBusinessAccount deletes an account only when it is of type BUSINESS.
func (s *ledgerServiceImpl) CloseBusinessAccount(ctx context.Context, caller, accountID string) error {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repos.AccountRepo.DeleteBusinessAccount(ctx, normalizeAccountID(accountID))
}

func (s *ledgerServiceImpl) ListAllAccounts(ctx context.Context, caller string) ([]domain.Account, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repos.AccountRepo.ListAccounts(ctx)
}

// GrantAdmin upserts an admin grant. Owner only.
func (s *ledgerServiceImpl) GrantAdmin(ctx context.Context, caller, identity, displayName string) error {
	if err := s.authz.Require(ctx, caller, domain.RoleOwner); err != nil {
		return err
	}
	if strings.TrimSpace(identity) == "" {
		return fmt.Errorf("%w: identity cannot be empty", apperrors.ErrValidation)
	}
	return s.repos.AdminRepo.UpsertAdmin(ctx, domain.AdminGrant{Identity: identity, DisplayName: displayName})
}

// RevokeAdmin removes an admin grant. Owner only.
func (s *ledgerServiceImpl) RevokeAdmin(ctx context.Context, caller, identity string) error {
	if err := s.authz.Require(ctx, caller, domain.RoleOwner); err != nil {
		return err
	}
	return s.repos.AdminRepo.RemoveAdmin(ctx, identity)
}

// ListAdmins lists current admin grants. Owner only.
func (s *ledgerServiceImpl) ListAdmins(ctx context.Context, caller string) ([]domain.AdminGrant, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleOwner); err != nil {
		return nil, err
	}
	return s.repos.AdminRepo.ListAdmins(ctx)
}
