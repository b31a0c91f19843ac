package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	"github.com/sepandbank/ledger-core/internal/dto"
	"github.com/shopspring/decimal"
)

// Register redeems a registration code, allocates a PERSONAL account and
// creates the user record.
//
// The code is burned on attempt: it is consumed before the account insert, and
// a failure in the remaining steps does not refund it. Such failures surface
// as ErrRegistrationIncomplete wrapping the cause, so the caller can tell this
// narrow window apart from ordinary rejections.
func (s *ledgerServiceImpl) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	// Reject duplicates before touching the code so a fresh code survives a
	// re-registration attempt.
	_, err := s.repos.UserRepo.FindUserByIdentity(ctx, req.Identity)
	if err == nil {
		return nil, apperrors.ErrAlreadyRegistered
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user %s: %w", req.Identity, err)
	}

	if err := s.repos.CodeRepo.ConsumeCode(ctx, req.Code); err != nil {
		return nil, err
	}

	accountID, err := allocateAccount(ctx, PersonalAccountPrefix, PersonalAccountDigits, func(ctx context.Context, accountID string) error {
		return s.repos.AccountRepo.SaveAccount(ctx, domain.Account{
			AccountID:     accountID,
			OwnerIdentity: req.Identity,
			Type:          domain.Personal,
			Name:          req.FullName,
			Balance:       decimal.Zero,
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Account creation failed after code was consumed",
			slog.String("identity", req.Identity))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRegistrationIncomplete, err.Error())
	}

	user := domain.User{
		Identity:          req.Identity,
		Username:          req.Username,
		FullName:          req.FullName,
		PersonalAccountID: accountID,
	}
	if err := s.repos.UserRepo.SaveUser(ctx, user); err != nil {
		s.LogError(ctx, err, "User creation failed after code was consumed",
			slog.String("identity", req.Identity),
			slog.String("account_id", accountID))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRegistrationIncomplete, err.Error())
	}

	s.LogInfo(ctx, "User registered",
		slog.String("identity", req.Identity),
		slog.String("account_id", accountID))
	return &dto.RegisterResult{AccountID: accountID}, nil
}

func (s *ledgerServiceImpl) ListUsers(ctx context.Context, caller string) ([]domain.User, error) {
	if err := s.authz.Require(ctx, caller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repos.UserRepo.ListUsers(ctx)
}
