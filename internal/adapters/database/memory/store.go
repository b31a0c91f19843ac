// Package memory provides an in-process implementation of the repository
// ports. It backs the test suites and embedded deployments; the pgsql adapter
// is the durable equivalent. Balance mutations follow the same discipline as
// the database adapter: exclusive rights on every touched account for the
// whole unit of work, acquired in sorted account-id order, with a bounded
// wait that expires into ErrBusy.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	portsrepo "github.com/sepandbank/ledger-core/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type memAccount struct {
	sem     chan struct{} // holds one token; owning the token is holding the account's balance lock
	account domain.Account
	deleted bool
}

// Store holds all five collections behind one struct.
type Store struct {
	lockWait time.Duration

	mu           sync.RWMutex // guards the maps and every field write below
	accounts     map[string]*memAccount
	users        map[string]domain.User
	codes        map[string]struct{}
	admins       map[string]domain.AdminGrant
	transactions []domain.TransactionRecord
}

// NewStore creates an empty store. lockWait bounds how long a balance
// mutation waits for a contended account before reporting Busy.
func NewStore(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = 2 * time.Second
	}
	return &Store{
		lockWait: lockWait,
		accounts: make(map[string]*memAccount),
		users:    make(map[string]domain.User),
		codes:    make(map[string]struct{}),
		admins:   make(map[string]domain.AdminGrant),
	}
}

// NewRepositoryProvider exposes the store through the repository ports.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     s,
		UserRepo:        s,
		CodeRepo:        s,
		TransactionRepo: s,
		AdminRepo:       s,
	}
}

var (
	_ portsrepo.AccountRepository          = (*Store)(nil)
	_ portsrepo.UserRepository             = (*Store)(nil)
	_ portsrepo.RegistrationCodeRepository = (*Store)(nil)
	_ portsrepo.TransactionRepository      = (*Store)(nil)
	_ portsrepo.AdminRepository            = (*Store)(nil)
)

// acquire takes the account's balance lock, waiting at most lockWait.
func (s *Store) acquire(ctx context.Context, acc *memAccount) error {
	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()
	select {
	case acc.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return apperrors.ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(acc *memAccount) {
	<-acc.sem
}

// lockAccounts looks up and locks the given accounts in sorted id order so
// overlapping units of work cannot deadlock. On any failure every lock taken
// so far is released.
func (s *Store) lockAccounts(ctx context.Context, accountIDs ...string) ([]*memAccount, func(), error) {
	ordered := append([]string(nil), accountIDs...)
	sort.Strings(ordered)

	s.mu.RLock()
	accs := make([]*memAccount, 0, len(ordered))
	for _, id := range ordered {
		acc, ok := s.accounts[id]
		if !ok {
			s.mu.RUnlock()
			return nil, nil, apperrors.ErrNotFound
		}
		accs = append(accs, acc)
	}
	s.mu.RUnlock()

	locked := make([]*memAccount, 0, len(accs))
	unlock := func() {
		for _, acc := range locked {
			s.release(acc)
		}
	}
	for _, acc := range accs {
		if err := s.acquire(ctx, acc); err != nil {
			unlock()
			return nil, nil, err
		}
		locked = append(locked, acc)
		if acc.deleted {
			unlock()
			return nil, nil, apperrors.ErrNotFound
		}
	}
	return accs, unlock, nil
}

// --- AccountRepository ---

// SaveAccount inserts a new account; the map check under the store lock is
// the uniqueness arbiter for ID allocation.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
	}
	s.accounts[account.AccountID] = &memAccount{
		sem:     make(chan struct{}, 1),
		account: account,
	}
	return nil
}

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok || acc.deleted {
		return nil, apperrors.ErrNotFound
	}
	copied := acc.account
	return &copied, nil
}

func (s *Store) FindAccountsByOwner(ctx context.Context, ownerIdentity string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := []domain.Account{}
	for _, acc := range s.accounts {
		if !acc.deleted && acc.account.OwnerIdentity == ownerIdentity {
			accounts = append(accounts, acc.account)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := []domain.Account{}
	for _, acc := range s.accounts {
		if !acc.deleted {
			accounts = append(accounts, acc.account)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func sortAccounts(accounts []domain.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountID < accounts[j].AccountID
	})
}

func (s *Store) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return fmt.Errorf("%w: amount must be non-zero", apperrors.ErrInvalidAmount)
	}

	accs, unlock, err := s.lockAccounts(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	acc := accs[0]
	newBalance := acc.account.Balance.Add(delta)
	if newBalance.IsNegative() {
		return apperrors.ErrInsufficientFunds
	}

	s.mu.Lock()
	acc.account.Balance = newBalance
	s.mu.Unlock()
	return nil
}

func (s *Store) TransferFunds(ctx context.Context, fromID, toID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	if fromID == toID {
		return apperrors.ErrSelfTransfer
	}

	_, unlock, err := s.lockAccounts(ctx, fromID, toID)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.RLock()
	from := s.accounts[fromID]
	to := s.accounts[toID]
	s.mu.RUnlock()

	if from.account.Balance.LessThan(amount) {
		return apperrors.ErrInsufficientFunds
	}

	// Both legs commit under one store lock; there is no observable state
	// with the debit applied and the credit missing.
	s.mu.Lock()
	from.account.Balance = from.account.Balance.Sub(amount)
	to.account.Balance = to.account.Balance.Add(amount)
	s.mu.Unlock()
	return nil
}

func (s *Store) UpdateAccountOwner(ctx context.Context, accountID, newOwnerIdentity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountID]
	if !ok || acc.deleted {
		return apperrors.ErrNotFound
	}
	acc.account.OwnerIdentity = newOwnerIdentity
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	account, err := s.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsRoot() {
		return apperrors.ErrProtectedAccount
	}
	return s.delete(ctx, accountID, "")
}

func (s *Store) DeleteBusinessAccount(ctx context.Context, accountID string) error {
	return s.delete(ctx, accountID, domain.Business)
}

// delete acquires the account's balance lock before removal so an in-flight
// transfer never commits against a vanished account.
func (s *Store) delete(ctx context.Context, accountID string, onlyType domain.AccountType) error {
	accs, unlock, err := s.lockAccounts(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	acc := accs[0]
	if onlyType != "" && acc.account.Type != onlyType {
		return apperrors.ErrNotFound
	}

	s.mu.Lock()
	acc.deleted = true
	delete(s.accounts, accountID)
	s.mu.Unlock()
	return nil
}

// --- UserRepository ---

func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Identity]; exists {
		return fmt.Errorf("%w: user %s already exists", apperrors.ErrDuplicate, user.Identity)
	}
	s.users[user.Identity] = user
	return nil
}

func (s *Store) FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[identity]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

func (s *Store) FindUserByAccountID(ctx context.Context, accountID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok || acc.deleted {
		return nil, apperrors.ErrNotFound
	}
	user, ok := s.users[acc.account.OwnerIdentity]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []domain.User{}
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].FullName < users[j].FullName
	})
	return users, nil
}

// --- RegistrationCodeRepository ---

func (s *Store) SaveCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[code]; exists {
		return fmt.Errorf("%w: code already exists", apperrors.ErrDuplicate)
	}
	s.codes[code] = struct{}{}
	return nil
}

func (s *Store) ConsumeCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[code]; !exists {
		return apperrors.ErrInvalidCode
	}
	delete(s.codes, code)
	return nil
}

// --- TransactionRepository ---

func (s *Store) SaveTransaction(ctx context.Context, record domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, record)
	return nil
}

func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := []domain.TransactionRecord{}
	for i := len(s.transactions) - 1; i >= 0; i-- {
		rec := s.transactions[i]
		if rec.FromAccountID == accountID || rec.ToAccountID == accountID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// --- AdminRepository ---

func (s *Store) UpsertAdmin(ctx context.Context, grant domain.AdminGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[grant.Identity] = grant
	return nil
}

func (s *Store) RemoveAdmin(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.admins[identity]; !exists {
		return apperrors.ErrNotFound
	}
	delete(s.admins, identity)
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]domain.AdminGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grants := []domain.AdminGrant{}
	for _, grant := range s.admins {
		grants = append(grants, grant)
	}
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].DisplayName < grants[j].DisplayName
	})
	return grants, nil
}

func (s *Store) IsAdmin(ctx context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.admins[identity]
	return exists, nil
}
