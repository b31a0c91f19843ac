package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/sepandbank/ledger-core/internal/apperrors"
	"github.com/sepandbank/ledger-core/internal/core/domain"
)

// ID formats carried over from the production schema.
const (
	PersonalAccountPrefix = "ACC-"
	PersonalAccountDigits = 6
	BusinessAccountPrefix = "BUS-"
	BusinessAccountDigits = 5

	// maxAllocationAttempts bounds collision retries so worst-case latency is
	// bounded and exhaustion is observable instead of an infinite loop.
	maxAllocationAttempts = 10
)

// randomAccountID returns prefix followed by digitCount random decimal digits.
// The reserved root ID is never returned.
func randomAccountID(prefix string, digitCount int) (string, error) {
	for {
		var b strings.Builder
		b.WriteString(prefix)
		for i := 0; i < digitCount; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(10))
			if err != nil {
				return "", fmt.Errorf("failed to draw random digit: %w", err)
			}
			b.WriteByte(byte('0' + n.Int64()))
		}
		id := b.String()
		if id != domain.RootAccountID {
			return id, nil
		}
	}
}

// NewTxID generates a transaction identifier, independent of account IDs.
func NewTxID() string {
	return "TX-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// allocateAccount generates candidate IDs and lets save arbitrate uniqueness:
// save must insert the account and fail with ErrDuplicate on an ID collision,
// in which case a fresh candidate is tried. Generation and insertion are never
// split into a check-then-insert pair, so two concurrent allocations can never
// both accept the same ID.
func allocateAccount(ctx context.Context, prefix string, digitCount int, save func(ctx context.Context, accountID string) error) (string, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		id, err := randomAccountID(prefix, digitCount)
		if err != nil {
			return "", err
		}
		err = save(ctx, id)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, apperrors.ErrDuplicate) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w: gave up after %d attempts on prefix %s", apperrors.ErrAllocationExhausted, maxAllocationAttempts, prefix)
}
