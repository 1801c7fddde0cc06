package lifecycle

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound   Kind = "NotFound"
	KindConflict   Kind = "Conflict"
	KindValidation Kind = "ValidationError"
	KindDependency Kind = "DependencyFailure"
)

// Error is the typed failure returned by every Service operation.
// errors.Is matches on Code, so a detailed error still matches its sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrBookNotFound        = &Error{Kind: KindNotFound, Code: "book_not_found", Message: "book not found"}
	ErrMemberNotFound      = &Error{Kind: KindNotFound, Code: "member_not_found", Message: "member not found"}
	ErrLoanNotFound        = &Error{Kind: KindNotFound, Code: "loan_not_found", Message: "loan not found"}
	ErrReservationNotFound = &Error{Kind: KindNotFound, Code: "reservation_not_found", Message: "reservation not found"}

	ErrBookUnavailable       = &Error{Kind: KindConflict, Code: "book_unavailable", Message: "book is already on loan"}
	ErrDuplicateLoan         = &Error{Kind: KindConflict, Code: "duplicate_loan", Message: "member already has this book on loan"}
	ErrDuplicateReservation  = &Error{Kind: KindConflict, Code: "duplicate_reservation", Message: "member already has a pending reservation for this book"}
	ErrAlreadyOnLoan         = &Error{Kind: KindConflict, Code: "already_on_loan", Message: "member already has this book on loan"}
	ErrAlreadyReturned       = &Error{Kind: KindConflict, Code: "already_returned", Message: "loan has already been returned"}
	ErrDirectLoanPossible    = &Error{Kind: KindConflict, Code: "direct_loan_possible", Message: "book is available and can be loaned directly"}
	ErrNotCancellable        = &Error{Kind: KindConflict, Code: "not_cancellable", Message: "reservation cannot be cancelled"}
	ErrDuplicateISBN         = &Error{Kind: KindConflict, Code: "duplicate_isbn", Message: "a book with this ISBN already exists"}
	ErrDuplicateMembershipID = &Error{Kind: KindConflict, Code: "duplicate_membership_id", Message: "a member with this membership id already exists"}
	ErrDuplicateEmail        = &Error{Kind: KindConflict, Code: "duplicate_email", Message: "a member with this email already exists"}
	ErrDuplicateMember       = &Error{Kind: KindConflict, Code: "duplicate_member", Message: "a member with this membership id or email already exists"}
	ErrBookOnLoan            = &Error{Kind: KindConflict, Code: "book_on_loan", Message: "cannot delete book: it is currently on loan"}
	ErrMemberHasLoans        = &Error{Kind: KindConflict, Code: "member_has_loans", Message: "cannot delete member: they have outstanding loans"}

	ErrInvalidID    = &Error{Kind: KindValidation, Code: "invalid_id", Message: "invalid id"}
	ErrInvalidInput = &Error{Kind: KindValidation, Code: "invalid_input", Message: "invalid input"}

	ErrDependency = &Error{Kind: KindDependency, Code: "dependency_failure", Message: "dependency failure"}
)

// failf returns a copy of base with a formatted message.
func failf(base *Error, format string, args ...interface{}) error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

func dependency(op string, err error) error {
	return &Error{
		Kind:    KindDependency,
		Code:    ErrDependency.Code,
		Message: fmt.Sprintf("%s: %v", op, err),
		cause:   err,
	}
}

// KindOf classifies err. Errors not produced by this package report "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the stable machine-readable code of err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
