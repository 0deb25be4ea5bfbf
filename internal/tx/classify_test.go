package tx

import (
	"context"
	"net"
	"testing"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassifyBroadcastError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want broadcastOutcome
	}{
		{"nil error", nil, outcomeAccepted},
		{"geth already known", errors.New("already known"), outcomeAlreadyKnown},
		{"known transaction with hash", errors.New("known transaction: 0xabc123"), outcomeAlreadyKnown},
		{"nonce too low", errors.New("nonce too low"), outcomeNonceConflict},
		{"invalid nonce", errors.New("invalid nonce"), outcomeNonceConflict},
		{"replacement underpriced", errors.New("replacement transaction underpriced"), outcomeNonceConflict},
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), outcomeInsufficientFunds},
		{"unknown node error", errors.New("oversized data"), outcomeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyBroadcastError(tt.err))
		})
	}
}

func TestIsTransportError(t *testing.T) {
	assert.True(t, isTransportError(context.DeadlineExceeded))
	assert.True(t, isTransportError(context.Canceled))
	assert.True(t, isTransportError(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	assert.False(t, isTransportError(errors.New("nonce too low")))
}

func TestOutcomeFailureKind(t *testing.T) {
	assert.Equal(t, custody.ErrKindNonceConflict, outcomeNonceConflict.failureKind())
	assert.Equal(t, custody.ErrKindInsufficientFunds, outcomeInsufficientFunds.failureKind())
	assert.Equal(t, custody.ErrKindTransient, outcomeTransient.failureKind())
}
