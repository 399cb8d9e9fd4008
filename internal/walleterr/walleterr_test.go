package walleterr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

func TestKindOf(t *testing.T) {
	err := walleterr.New(walleterr.BelowMinimumBalance, "reserve broken")
	assert.Equal(t, walleterr.BelowMinimumBalance, walleterr.KindOf(err))

	wrapped := fmt.Errorf("flow failed: %w", err)
	assert.Equal(t, walleterr.BelowMinimumBalance, walleterr.KindOf(wrapped))

	assert.Equal(t, walleterr.Kind(""), walleterr.KindOf(errors.New("plain")))
	assert.Equal(t, walleterr.Kind(""), walleterr.KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := walleterr.Wrap(walleterr.SubmissionFailed, cause, "node unreachable")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, walleterr.Is(err, walleterr.SubmissionFailed))
	assert.Contains(t, err.Error(), "node unreachable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsSoft(t *testing.T) {
	soft := []walleterr.Kind{
		walleterr.MaxRequiresClosureConfirmation,
		walleterr.MaxFromRekeyedAccount,
		walleterr.ReceiverNotOptedIntoAsset,
	}
	for _, kind := range soft {
		assert.True(t, walleterr.IsSoft(kind), string(kind))
	}

	hard := []walleterr.Kind{
		walleterr.AmountExceedsBalance,
		walleterr.BelowMinimumBalance,
		walleterr.InvalidReceiverAddress,
		walleterr.ParamsFetchFailed,
		walleterr.SubmissionFailed,
		walleterr.SDKRejected,
		walleterr.LedgerTimeout,
		walleterr.LedgerUserCancelled,
	}
	for _, kind := range hard {
		assert.False(t, walleterr.IsSoft(kind), string(kind))
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, walleterr.IsValidation(walleterr.AmountExceedsBalance))
	assert.True(t, walleterr.IsValidation(walleterr.ReceiverNotOptedIntoAsset))
	assert.False(t, walleterr.IsValidation(walleterr.ParamsFetchFailed))
	assert.False(t, walleterr.IsValidation(walleterr.LedgerTimeout))
}
