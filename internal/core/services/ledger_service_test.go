package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/sepandbank/ledger-core/internal/core/ports/services"
	"github.com/sepandbank/ledger-core/internal/core/services"
	"github.com/sepandbank/ledger-core/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	ownerIdentity = "owner-1"
	adminIdentity = "admin-1"
	userIdentity  = "user-1"
	otherIdentity = "user-2"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockAccounts *MockAccountRepository
	mockUsers    *MockUserRepository
	mockCodes    *MockRegistrationCodeRepository
	mockTxns     *MockTransactionRepository
	mockAdmins   *MockAdminRepository
	service      portssvc.LedgerSvc
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockAccounts = new(MockAccountRepository)
	suite.mockUsers = new(MockUserRepository)
	suite.mockCodes = new(MockRegistrationCodeRepository)
	suite.mockTxns = new(MockTransactionRepository)
	suite.mockAdmins = new(MockAdminRepository)

	repos := portsrepo.RepositoryProvider{
		AccountRepo:     suite.mockAccounts,
		UserRepo:        suite.mockUsers,
		CodeRepo:        suite.mockCodes,
		TransactionRepo: suite.mockTxns,
		AdminRepo:       suite.mockAdmins,
	}
	authz := services.NewAuthorizationService(ownerIdentity, suite.mockAdmins, suite.mockUsers)
	suite.service = services.NewLedgerService(repos, authz, services.WithBusyBackoff(time.Millisecond))
}

// expectRole wires the classification lookups for a caller.
func (suite *LedgerServiceTestSuite) expectRole(identity string, role domain.Role) {
	switch role {
	case domain.RoleAdmin:
		suite.mockAdmins.On("IsAdmin", mock.Anything, identity).Return(true, nil)
	case domain.RoleUser:
		suite.mockAdmins.On("IsAdmin", mock.Anything, identity).Return(false, nil)
		suite.mockUsers.On("FindUserByIdentity", mock.Anything, identity).Return(&domain.User{Identity: identity}, nil)
	default:
		suite.mockAdmins.On("IsAdmin", mock.Anything, identity).Return(false, nil)
		suite.mockUsers.On("FindUserByIdentity", mock.Anything, identity).Return(nil, apperrors.ErrNotFound)
	}
}

// --- Transfer ---

func (suite *LedgerServiceTestSuite) TestTransfer_Success() {
	ctx := context.Background()
	amount := decimal.NewFromInt(25)
	suite.expectRole(userIdentity, domain.RoleUser)
	suite.mockAccounts.On("FindAccountByID", ctx, "ACC-100200").
		Return(&domain.Account{AccountID: "ACC-100200", OwnerIdentity: userIdentity, Type: domain.Personal}, nil).Once()
	suite.mockAccounts.On("TransferFunds", ctx, "ACC-100200", "ACC-300400", amount).Return(nil).Once()
	suite.mockTxns.On("SaveTransaction", ctx, mock.AnythingOfType("domain.TransactionRecord")).Return(nil).Once()

	record, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "acc-100200", // normalized to upper case
		ToAccountID:   "ACC-300400",
		Amount:        amount,
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(record)
	suite.Equal(domain.StatusCompleted, record.Status)
	suite.Equal("ACC-100200", record.FromAccountID)
	suite.Equal("ACC-300400", record.ToAccountID)
	suite.True(strings.HasPrefix(record.TxID, "TX-"))
	suite.mockTxns.AssertNumberOfCalls(suite.T(), "SaveTransaction", 1)
	suite.mockAccounts.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestTransfer_InsufficientFunds_RecordsFailedAttempt() {
	ctx := context.Background()
	amount := decimal.NewFromInt(50)
	suite.expectRole(userIdentity, domain.RoleUser)
	suite.mockAccounts.On("FindAccountByID", ctx, "ACC-100200").
		Return(&domain.Account{AccountID: "ACC-100200", OwnerIdentity: userIdentity}, nil).Once()
	suite.mockAccounts.On("TransferFunds", ctx, "ACC-100200", "ACC-300400", amount).
		Return(apperrors.ErrInsufficientFunds).Once()
	suite.mockTxns.On("SaveTransaction", ctx, mock.MatchedBy(func(r domain.TransactionRecord) bool {
		return r.Status == domain.StatusFailed
	})).Return(nil).Once()

	record, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "ACC-100200",
		ToAccountID:   "ACC-300400",
		Amount:        amount,
	})

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.Require().NotNil(record)
	suite.Equal(domain.StatusFailed, record.Status)
	suite.mockTxns.AssertNumberOfCalls(suite.T(), "SaveTransaction", 1)
}

func (suite *LedgerServiceTestSuite) TestTransfer_InvalidAmount_NoAuditRecord() {
	ctx := context.Background()

	record, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "ACC-100200",
		ToAccountID:   "ACC-300400",
		Amount:        decimal.Zero,
	})

	suite.Require().ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.Nil(record)
	suite.mockTxns.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
	suite.mockAccounts.AssertNotCalled(suite.T(), "TransferFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestTransfer_SelfTransfer_Rejected() {
	ctx := context.Background()

	record, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "ACC-100200",
		ToAccountID:   "acc-100200",
		Amount:        decimal.NewFromInt(5),
	})

	suite.Require().ErrorIs(err, apperrors.ErrSelfTransfer)
	suite.Nil(record)
	suite.mockTxns.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestTransfer_NotOwnedAccount_Unauthorized() {
	ctx := context.Background()
	suite.expectRole(userIdentity, domain.RoleUser)
	suite.mockAccounts.On("FindAccountByID", ctx, "ACC-100200").
		Return(&domain.Account{AccountID: "ACC-100200", OwnerIdentity: otherIdentity}, nil).Once()

	_, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "ACC-100200",
		ToAccountID:   "ACC-300400",
		Amount:        decimal.NewFromInt(5),
	})

	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockAccounts.AssertNotCalled(suite.T(), "TransferFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxns.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestTransfer_BusyIsRetried() {
	ctx := context.Background()
	amount := decimal.NewFromInt(10)
	suite.expectRole(userIdentity, domain.RoleUser)
	suite.mockAccounts.On("FindAccountByID", ctx, "ACC-100200").
		Return(&domain.Account{AccountID: "ACC-100200", OwnerIdentity: userIdentity}, nil).Once()
	suite.mockAccounts.On("TransferFunds", ctx, "ACC-100200", "ACC-300400", amount).
		Return(apperrors.ErrBusy).Twice()
	suite.mockAccounts.On("TransferFunds", ctx, "ACC-100200", "ACC-300400", amount).
		Return(nil).Once()
	suite.mockTxns.On("SaveTransaction", ctx, mock.MatchedBy(func(r domain.TransactionRecord) bool {
		return r.Status == domain.StatusCompleted
	})).Return(nil).Once()

	record, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "ACC-100200",
		ToAccountID:   "ACC-300400",
		Amount:        amount,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, record.Status)
	suite.mockAccounts.AssertNumberOfCalls(suite.T(), "TransferFunds", 3)
}

func (suite *LedgerServiceTestSuite) TestTransfer_AuditWriteFailureDoesNotFailTransfer() {
	ctx := context.Background()
	amount := decimal.NewFromInt(10)
	suite.expectRole(userIdentity, domain.RoleUser)
	suite.mockAccounts.On("FindAccountByID", ctx, "ACC-100200").
		Return(&domain.Account{AccountID: "ACC-100200", OwnerIdentity: userIdentity}, nil).Once()
	suite.mockAccounts.On("TransferFunds", ctx, "ACC-100200", "ACC-300400", amount).Return(nil).Once()
	suite.mockTxns.On("SaveTransaction", ctx, mock.AnythingOfType("domain.TransactionRecord")).
		Return(apperrors.ErrNotFound).Once()

	record, err := suite.service.Transfer(ctx, userIdentity, dto.TransferRequest{
		FromAccountID: "ACC-100200",
		ToAccountID:   "ACC-300400",
		Amount:        amount,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, record.Status)
}

// --- Authorization tiers ---

func (suite *LedgerServiceTestSuite) TestAdminOperations_RejectPlainUser() {
	ctx := context.Background()
	suite.expectRole(userIdentity, domain.RoleUser)

	err := suite.service.IssueCode(ctx, userIdentity, "CODE-1")
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.CreateBusinessAccount(ctx, userIdentity, otherIdentity, "Shop")
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	err = suite.service.AdjustRootBalance(ctx, userIdentity, decimal.NewFromInt(100))
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.ListUsers(ctx, userIdentity)
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	suite.mockCodes.AssertNotCalled(suite.T(), "SaveCode", mock.Anything, mock.Anything)
	suite.mockAccounts.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestOwnerOperations_RejectAdmin() {
	ctx := context.Background()
	suite.expectRole(adminIdentity, domain.RoleAdmin)

	err := suite.service.GrantAdmin(ctx, adminIdentity, otherIdentity, "New Admin")
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	err = suite.service.RevokeAdmin(ctx, adminIdentity, otherIdentity)
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.ListAdmins(ctx, adminIdentity)
	suite.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	suite.mockAdmins.AssertNotCalled(suite.T(), "UpsertAdmin", mock.Anything, mock.Anything)
	suite.mockAdmins.AssertNotCalled(suite.T(), "RemoveAdmin", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestOwnerOperations_AllowOwner() {
	ctx := context.Background()
	suite.mockAdmins.On("UpsertAdmin", ctx, domain.AdminGrant{Identity: otherIdentity, DisplayName: "New Admin"}).Return(nil).Once()

	err := suite.service.GrantAdmin(ctx, ownerIdentity, otherIdentity, "New Admin")

	suite.Require().NoError(err)
	suite.mockAdmins.AssertExpectations(suite.T())
}

// --- Admin operations ---

func (suite *LedgerServiceTestSuite) TestCreateBusinessAccount_AllocatesBusinessID() {
	ctx := context.Background()
	suite.expectRole(adminIdentity, domain.RoleAdmin)
	suite.mockAccounts.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Type == domain.Business && strings.HasPrefix(a.AccountID, "BUS-") && a.Balance.IsZero()
	})).Return(nil).Once()

	account, err := suite.service.CreateBusinessAccount(ctx, adminIdentity, otherIdentity, "Shop")

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.Len(account.AccountID, len("BUS-")+5)
	suite.Equal(otherIdentity, account.OwnerIdentity)
	suite.mockAccounts.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateBusinessAccount_RetriesOnCollision() {
	ctx := context.Background()
	suite.expectRole(adminIdentity, domain.RoleAdmin)
	suite.mockAccounts.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).
		Return(apperrors.ErrDuplicate).Once()
	suite.mockAccounts.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).
		Return(nil).Once()

	account, err := suite.service.CreateBusinessAccount(ctx, adminIdentity, otherIdentity, "Shop")

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.mockAccounts.AssertNumberOfCalls(suite.T(), "SaveAccount", 2)
}

func (suite *LedgerServiceTestSuite) TestAdjustRootBalance_TargetsRootAccount() {
	ctx := context.Background()
	delta := decimal.NewFromInt(100)
	suite.expectRole(adminIdentity, domain.RoleAdmin)
	suite.mockAccounts.On("AdjustBalance", ctx, domain.RootAccountID, delta).Return(nil).Once()

	err := suite.service.AdjustRootBalance(ctx, adminIdentity, delta)

	suite.Require().NoError(err)
	suite.mockAccounts.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestTransferFromRoot_Audited() {
	ctx := context.Background()
	amount := decimal.NewFromInt(100)
	suite.expectRole(adminIdentity, domain.RoleAdmin)
	suite.mockAccounts.On("TransferFunds", ctx, domain.RootAccountID, "ACC-100200", amount).Return(nil).Once()
	suite.mockTxns.On("SaveTransaction", ctx, mock.AnythingOfType("domain.TransactionRecord")).Return(nil).Once()

	record, err := suite.service.TransferFromRoot(ctx, adminIdentity, "ACC-100200", amount)

	suite.Require().NoError(err)
	suite.Equal(domain.RootAccountID, record.FromAccountID)
	suite.Equal("ACC-100200", record.ToAccountID)
}

func (suite *LedgerServiceTestSuite) TestForceWithdraw_CreditsRootAccount() {
	ctx := context.Background()
	amount := decimal.NewFromInt(30)
	suite.expectRole(adminIdentity, domain.RoleAdmin)
	suite.mockAccounts.On("TransferFunds", ctx, "ACC-100200", domain.RootAccountID, amount).Return(nil).Once()
	suite.mockTxns.On("SaveTransaction", ctx, mock.AnythingOfType("domain.TransactionRecord")).Return(nil).Once()

	record, err := suite.service.ForceWithdraw(ctx, adminIdentity, "acc-100200", amount)

	suite.Require().NoError(err)
	suite.Equal(domain.RootAccountID, record.ToAccountID)
}

func (suite *LedgerServiceTestSuite) TestCloseAccount_RootProtected() {
	ctx := context.Background()
	suite.expectRole(adminIdentity, domain.RoleAdmin)
	suite.mockAccounts.On("DeleteAccount", ctx, domain.RootAccountID).
		Return(apperrors.ErrProtectedAccount).Once()

	err := suite.service.CloseAccount(ctx, adminIdentity, domain.RootAccountID)

	suite.Require().ErrorIs(err, apperrors.ErrProtectedAccount)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
