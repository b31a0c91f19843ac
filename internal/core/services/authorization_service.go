package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/sepandbank/ledger-core/internal/core/ports/services"
)

// authorizationServiceImpl implements the AuthorizerSvc interface.
type authorizationServiceImpl struct {
	BaseService
	ownerIdentity string
	adminRepo     portsrepo.AdminRepository
	userRepo      portsrepo.UserRepository
}

// NewAuthorizationService creates the role classifier. ownerIdentity is the
// single identity holding the Owner role, configured out-of-band; an empty
// string means no caller can ever reach Owner.
func NewAuthorizationService(ownerIdentity string, adminRepo portsrepo.AdminRepository, userRepo portsrepo.UserRepository) portssvc.AuthorizerSvc {
	return &authorizationServiceImpl{
		ownerIdentity: ownerIdentity,
		adminRepo:     adminRepo,
		userRepo:      userRepo,
	}
}

var _ portssvc.AuthorizerSvc = (*authorizationServiceImpl)(nil)

func (s *authorizationServiceImpl) Classify(ctx context.Context, identity string) (domain.Role, error) {
	if identity == "" {
		return domain.RoleAnonymous, nil
	}
	if s.ownerIdentity != "" && identity == s.ownerIdentity {
		return domain.RoleOwner, nil
	}

	isAdmin, err := s.adminRepo.IsAdmin(ctx, identity)
	if err != nil {
		return domain.RoleAnonymous, fmt.Errorf("failed to check admin grant for %s: %w", identity, err)
	}
	if isAdmin {
		return domain.RoleAdmin, nil
	}

	_, err = s.userRepo.FindUserByIdentity(ctx, identity)
	if err == nil {
		return domain.RoleUser, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.RoleAnonymous, nil
	}
	return domain.RoleAnonymous, fmt.Errorf("failed to look up user %s: %w", identity, err)
}

func (s *authorizationServiceImpl) Require(ctx context.Context, identity string, min domain.Role) error {
	role, err := s.Classify(ctx, identity)
	if err != nil {
		return err
	}
	if !role.AtLeast(min) {
		s.LogDebug(ctx, "Caller role below required tier",
			slog.String("identity", identity),
			slog.String("role", role.String()),
			slog.String("required", min.String()))
		return apperrors.ErrUnauthorized
	}
	return nil
}
