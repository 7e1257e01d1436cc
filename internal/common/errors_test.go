package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "validation struct", err: NewValidationError("price", "must be greater than 0"), want: KindValidation},
		{name: "wrapped wallet", err: fmt.Errorf("connect: %w", ErrWalletUnavailable), want: KindWalletUnavailable},
		{name: "rejected", err: fmt.Errorf("%w: passphrase prompt declined", ErrUserRejected), want: KindUserRejected},
		{name: "sync wrapping wallet", err: fmt.Errorf("%w: %w", ErrSyncFailure, ErrWalletUnavailable), want: KindWalletUnavailable},
		{name: "transaction", err: fmt.Errorf("%w: reverted", ErrTransactionFailure), want: KindTransaction},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	ledgerErr := fmt.Errorf("%w: %w", ErrTransactionFailure, &LedgerError{
		Message: "execution reverted: Not available",
		Err:     errors.New("rpc error"),
	})
	assert.Equal(t, "execution reverted: Not available", UserMessage(ledgerErr, "Transaction failed."))

	silent := fmt.Errorf("%w: %w", ErrTransactionFailure, &LedgerError{Err: errors.New("receipt status 0")})
	assert.Equal(t, "Transaction failed.", UserMessage(silent, "Transaction failed."))

	validation := NewValidationError("price", "must be a number greater than 0")
	assert.Equal(t, "price: must be a number greater than 0", UserMessage(validation, "x"))

	userErr := NewUserError("Please connect your wallet first.", ErrWalletUnavailable)
	assert.Equal(t, "Please connect your wallet first.", UserMessage(userErr, "x"))

	assert.Equal(t, "", UserMessage(nil, "x"))
}

func TestLedgerError_Error(t *testing.T) {
	inner := errors.New("execution reverted")
	assert.Equal(t, "execution reverted", (&LedgerError{Message: "execution reverted", Err: inner}).Error())
	assert.Equal(t, "Only owner: execution reverted", (&LedgerError{Message: "Only owner", Err: inner}).Error())
	assert.Equal(t, "plain", (&LedgerError{Message: "plain"}).Error())
	assert.ErrorIs(t, &LedgerError{Err: inner}, inner)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(ErrValidation))
}
