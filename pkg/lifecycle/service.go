// Package lifecycle owns the book, loan and reservation state transitions.
// It keeps no state of its own: every operation is a single transaction
// against a Store.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"libraryapp/pkg/clock"
	"libraryapp/pkg/models"
	"libraryapp/pkg/notify"
)

type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, bookUid string) (models.Book, error)
	LockBook(ctx context.Context, bookUid string) (models.Book, error)
	FindBookByISBN(ctx context.Context, isbn string) (*models.Book, error)
	ListBooks(ctx context.Context, status models.BookStatus) ([]models.Book, error)
	SaveBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, bookUid string) error

	CreateMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, memberUid string) (models.Member, error)
	FindMemberByMembershipID(ctx context.Context, membershipID string) (*models.Member, error)
	FindMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	FindMemberByExternalUser(ctx context.Context, externalUser string) (*models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	SaveMember(ctx context.Context, member *models.Member) error
	DeleteMember(ctx context.Context, memberUid string) error

	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, loanUid string) (models.Loan, error)
	LockLoan(ctx context.Context, loanUid string) (models.Loan, error)
	SaveLoan(ctx context.Context, loan *models.Loan) error
	FindActiveLoan(ctx context.Context, bookUid, memberUid string) (*models.Loan, error)
	ListLoans(ctx context.Context, filter models.LoanFilter) ([]models.Loan, error)
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)

	CreateReservation(ctx context.Context, reservation *models.Reservation) error
	GetReservation(ctx context.Context, reservationUid string) (models.Reservation, error)
	LockReservation(ctx context.Context, reservationUid string) (models.Reservation, error)
	SaveReservation(ctx context.Context, reservation *models.Reservation) error
	FindPendingReservation(ctx context.Context, bookUid, memberUid string) (*models.Reservation, error)
	NextPendingReservation(ctx context.Context, bookUid string) (*models.Reservation, error)
	CountPendingReservations(ctx context.Context, bookUid string) (int64, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
}

type Service struct {
	store       Store
	notifier    notify.Notifier
	clock       clock.Clock
	logger      *log.Logger
	loanPeriod  time.Duration
	concurrency int
}

const (
	defaultLoanPeriod  = 14 * 24 * time.Hour
	defaultConcurrency = 4
)

type Option func(*Service)

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoanPeriod sets the due date offset used when a loan has none.
func WithLoanPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loanPeriod = d
		}
	}
}

// WithNotifyConcurrency bounds parallel sends in NotifyOverdue.
func WithNotifyConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewService(store Store, notifier notify.Notifier, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		store:       store,
		notifier:    notifier,
		clock:       clk,
		logger:      log.Default(),
		loanPeriod:  defaultLoanPeriod,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return models.Date(s.clock.Now())
}

func parseID(raw string, what string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", failf(ErrInvalidID, "invalid %s id %q", what, raw)
	}
	return id.String(), nil
}

// parseOptionalID is parseID for filters, where an empty id means any.
func parseOptionalID(raw string, what string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return parseID(raw, what)
}

// lookup maps a store read failure onto the operation's error taxonomy.
func lookup(op string, err error, notFound error) error {
	if errors.Is(err, models.ErrNotFound) {
		return notFound
	}
	return dependency(op, err)
}

// wrapStore passes through errors already typed by this package.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return dependency(op, err)
}

func (s *Service) send(ctx context.Context, msg notify.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Printf("Failed to send %s notification to member %s: %v", msg.Template, msg.MemberUid, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
