package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentchain-backend/internal/domain"
)

var kindCodes = map[domain.ErrorKind]codes.Code{
	domain.KindNotFound:                codes.NotFound,
	domain.KindInvalidArgument:         codes.InvalidArgument,
	domain.KindUnauthorized:            codes.PermissionDenied,
	domain.KindDuplicateApplication:    codes.AlreadyExists,
	domain.KindDuplicateDispute:        codes.AlreadyExists,
	domain.KindAlreadyVoted:            codes.AlreadyExists,
	domain.KindInsufficientBalance:     codes.FailedPrecondition,
	domain.KindPropertyLocked:          codes.FailedPrecondition,
	domain.KindPropertyNotVacant:       codes.FailedPrecondition,
	domain.KindNotListed:               codes.FailedPrecondition,
	domain.KindInvalidApplicationState: codes.FailedPrecondition,
	domain.KindDisputeNotPending:       codes.FailedPrecondition,
	domain.KindCapacityExceeded:        codes.FailedPrecondition,
	domain.KindVotingClosed:            codes.FailedPrecondition,
	domain.KindResolutionNotReady:      codes.FailedPrecondition,
	domain.KindInvariantViolation:      codes.Internal,
}

// toStatus converts a service error into a gRPC status. Domain errors carry
// their kind and reason in an ErrorInfo detail so clients can branch on them.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return status.Error(codes.Internal, "internal error")
	}
	code, ok := kindCodes[de.Kind]
	if !ok {
		code = codes.Unknown
	}
	st := status.New(code, de.Error())
	info := &errdetails.ErrorInfo{Reason: string(de.Kind), Domain: "rentchain"}
	if de.Reason != "" {
		info.Metadata = map[string]string{"reason": de.Reason}
	}
	if withDetails, err := st.WithDetails(info); err == nil {
		st = withDetails
	}
	return st.Err()
}

// KindFromStatus recovers the domain error kind from a status returned by
// this server, or "" when there is none.
func KindFromStatus(err error) domain.ErrorKind {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return domain.ErrorKind(info.Reason)
		}
	}
	return ""
}
