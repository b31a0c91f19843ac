package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAccountID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^ACC-\d{6}$`)
	for i := 0; i < 100; i++ {
		id, err := randomAccountID(PersonalAccountPrefix, PersonalAccountDigits)
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
		assert.NotEqual(t, domain.RootAccountID, id)
	}
}

func TestNewTxID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^TX-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		txid := NewTxID()
		assert.Regexp(t, pattern, txid)
		assert.False(t, seen[txid], "txid %s generated twice", txid)
		seen[txid] = true
	}
}

func TestAllocateAccount_RetriesOnDuplicate(t *testing.T) {
	calls := 0
	id, err := allocateAccount(context.Background(), "BUS-", 5, func(ctx context.Context, accountID string) error {
		calls++
		if calls < 3 {
			return apperrors.ErrDuplicate
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Regexp(t, `^BUS-\d{5}$`, id)
}

func TestAllocateAccount_ExhaustsAfterBoundedAttempts(t *testing.T) {
	calls := 0
	_, err := allocateAccount(context.Background(), "BUS-", 5, func(ctx context.Context, accountID string) error {
		calls++
		return apperrors.ErrDuplicate
	})

	require.ErrorIs(t, err, apperrors.ErrAllocationExhausted)
	assert.Equal(t, maxAllocationAttempts, calls)
}

func TestAllocateAccount_StopsOnOtherErrors(t *testing.T) {
	calls := 0
	_, err := allocateAccount(context.Background(), "ACC-", 6, func(ctx context.Context, accountID string) error {
		calls++
		return apperrors.ErrBusy
	})

	require.ErrorIs(t, err, apperrors.ErrBusy)
	assert.Equal(t, 1, calls)
}
