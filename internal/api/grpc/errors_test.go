package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentchain-backend/internal/domain"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		kind domain.ErrorKind
	}{
		{"not found", domain.Errorf(domain.KindNotFound, "property 3"), codes.NotFound, domain.KindNotFound},
		{"wrapped guard", fmt.Errorf("accept: %w", domain.Reasonf(domain.ErrPaymentNotMade, "month 2")), codes.FailedPrecondition, domain.KindInvalidApplicationState},
		{"duplicate", domain.ErrAlreadyVoted, codes.AlreadyExists, domain.KindAlreadyVoted},
		{"unauthorized", domain.ErrUnauthorized, codes.PermissionDenied, domain.KindUnauthorized},
		{"invariant", domain.ErrInvariantViolation, codes.Internal, domain.KindInvariantViolation},
		{"plain error", errors.New("disk on fire"), codes.Internal, ""},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toStatus(tt.err)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.kind, KindFromStatus(err))
		})
	}
}

func TestToStatusKeepsReason(t *testing.T) {
	err := toStatus(domain.Reasonf(domain.ErrApplicationNotCompleted, "lease running"))
	st, _ := status.FromError(err)
	assert.Contains(t, st.Message(), "lease running")
	assert.Len(t, st.Details(), 1)
}

func TestToStatusHidesInternalText(t *testing.T) {
	st, _ := status.FromError(toStatus(errors.New("pq: password authentication failed")))
	assert.Equal(t, "internal error", st.Message())
}
