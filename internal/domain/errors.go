package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInsufficientBalance     ErrorKind = "INSUFFICIENT_BALANCE"
	KindPropertyLocked          ErrorKind = "PROPERTY_LOCKED"
	KindPropertyNotVacant       ErrorKind = "PROPERTY_NOT_VACANT"
	KindNotListed               ErrorKind = "NOT_LISTED"
	KindDuplicateApplication    ErrorKind = "DUPLICATE_APPLICATION"
	KindInvalidApplicationState ErrorKind = "INVALID_APPLICATION_STATE"
	KindDuplicateDispute        ErrorKind = "DUPLICATE_DISPUTE"
	KindDisputeNotPending       ErrorKind = "DISPUTE_NOT_PENDING"
	KindAlreadyVoted            ErrorKind = "ALREADY_VOTED"
	KindUnauthorized            ErrorKind = "UNAUTHORIZED"
	KindNotFound                ErrorKind = "NOT_FOUND"
	KindInvalidArgument         ErrorKind = "INVALID_ARGUMENT"
	KindCapacityExceeded        ErrorKind = "CAPACITY_EXCEEDED"
	KindVotingClosed            ErrorKind = "VOTING_CLOSED"
	KindResolutionNotReady      ErrorKind = "RESOLUTION_NOT_READY"
	KindInvariantViolation      ErrorKind = "INVARIANT_VIOLATION"
)

// Error is a typed guard failure. Callers branch with errors.Is against the
// sentinels below.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches on kind, and on reason when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrInsufficientBalance     = &Error{Kind: KindInsufficientBalance}
	ErrPropertyLocked          = &Error{Kind: KindPropertyLocked}
	ErrPropertyNotVacant       = &Error{Kind: KindPropertyNotVacant}
	ErrNotListed               = &Error{Kind: KindNotListed}
	ErrDuplicateApplication    = &Error{Kind: KindDuplicateApplication}
	ErrInvalidApplicationState = &Error{Kind: KindInvalidApplicationState}
	ErrApplicationNotCompleted = &Error{Kind: KindInvalidApplicationState, Reason: "APPLICATION_NOT_COMPLETED"}
	ErrPaymentNotMade          = &Error{Kind: KindInvalidApplicationState, Reason: "PAYMENT_NOT_MADE"}
	ErrDuplicateDispute        = &Error{Kind: KindDuplicateDispute}
	ErrDisputeNotPending       = &Error{Kind: KindDisputeNotPending}
	ErrAlreadyVoted            = &Error{Kind: KindAlreadyVoted}
	ErrUnauthorized            = &Error{Kind: KindUnauthorized}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrInvalidArgument         = &Error{Kind: KindInvalidArgument}
	ErrCapacityExceeded        = &Error{Kind: KindCapacityExceeded}
	ErrVotingClosed            = &Error{Kind: KindVotingClosed}
	ErrResolutionNotReady      = &Error{Kind: KindResolutionNotReady}
	ErrInvariantViolation      = &Error{Kind: KindInvariantViolation}
)

func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Reasonf builds an error that also matches the reason-specific sentinel.
func Reasonf(sentinel *Error, format string, args ...any) error {
	return &Error{Kind: sentinel.Kind, Reason: sentinel.Reason, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first domain error in the chain, or "".
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
