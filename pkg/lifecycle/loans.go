package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"libraryapp/pkg/models"
	"libraryapp/pkg/notify"
)

type CreateLoanInput struct {
	BookUid   string
	MemberUid string
	// LoanDate defaults to today, DueDate to LoanDate plus the loan period.
	LoanDate time.Time
	DueDate  time.Time
}

// CreateLoan lends a book to a member. A Reserved book may still be lent;
// its pending reservations stay queued.
func (s *Service) CreateLoan(ctx context.Context, in CreateLoanInput) (models.Loan, error) {
	bookUid, err := parseID(in.BookUid, "book")
	if err != nil {
		return models.Loan{}, err
	}
	memberUid, err := parseID(in.MemberUid, "member")
	if err != nil {
		return models.Loan{}, err
	}

	loanDate := models.Date(in.LoanDate)
	if in.LoanDate.IsZero() {
		loanDate = s.today()
	}
	dueDate := models.Date(in.DueDate)
	if in.DueDate.IsZero() {
		dueDate = models.Date(loanDate.Add(s.loanPeriod))
	}
	if dueDate.Before(loanDate) {
		return models.Loan{}, failf(ErrInvalidInput, "due date %s is before loan date %s",
			dueDate.Format(models.DateLayout), loanDate.Format(models.DateLayout))
	}

	var loan models.Loan
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.store.LockBook(ctx, bookUid)
		if err != nil {
			return lookup("lock book", err, ErrBookNotFound)
		}
		if _, err := s.store.GetMember(ctx, memberUid); err != nil {
			return lookup("get member", err, ErrMemberNotFound)
		}

		if book.Status == models.BookOnLoan {
			return failf(ErrBookUnavailable, "book %q (ISBN: %s) is already on loan", book.Title, book.ISBN)
		}
		own, err := s.store.FindActiveLoan(ctx, bookUid, memberUid)
		if err != nil {
			return dependency("find active loan", err)
		}
		if own != nil {
			return failf(ErrDuplicateLoan, "member already has %q on loan", book.Title)
		}
		other, err := s.store.FindActiveLoan(ctx, bookUid, "")
		if err != nil {
			return dependency("find active loan", err)
		}
		if other != nil {
			return failf(ErrBookUnavailable, "book %q (ISBN: %s) is already on loan", book.Title, book.ISBN)
		}

		loan = models.Loan{
			LoanUid:   uuid.New().String(),
			BookUid:   bookUid,
			MemberUid: memberUid,
			LoanDate:  loanDate,
			DueDate:   dueDate,
		}
		if err := s.store.CreateLoan(ctx, &loan); err != nil {
			return dependency("create loan", err)
		}

		book.Status = models.BookOnLoan
		if err := s.store.SaveBook(ctx, &book); err != nil {
			return dependency("save book", err)
		}
		return nil
	})
	if err != nil {
		return models.Loan{}, wrapStore("create loan", err)
	}

	s.logger.Printf("Loan %s created: book %s to member %s, due %s",
		loan.LoanUid, loan.BookUid, loan.MemberUid, loan.DueDate.Format(models.DateLayout))
	return loan, nil
}

type ReturnResult struct {
	Loan models.Loan
	Book models.Book
	// Fulfilled is the reservation promoted from the head of the queue, if any.
	Fulfilled *models.Reservation
}

// ReturnBook closes a loan. The book goes to the head of its reservation
// queue when one exists and only becomes Available when the queue is empty.
func (s *Service) ReturnBook(ctx context.Context, loanUid string) (ReturnResult, error) {
	id, err := parseID(loanUid, "loan")
	if err != nil {
		return ReturnResult{}, err
	}

	var (
		result ReturnResult
		member models.Member
	)
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		loan, err := s.store.LockLoan(ctx, id)
		if err != nil {
			return lookup("lock loan", err, ErrLoanNotFound)
		}
		if loan.Returned {
			return failf(ErrAlreadyReturned, "loan %s has already been marked as returned", loan.LoanUid)
		}
		book, err := s.store.LockBook(ctx, loan.BookUid)
		if err != nil {
			return lookup("lock book", err, ErrBookNotFound)
		}

		now := s.clock.Now()
		loan.Returned = true
		loan.ReturnedAt = &now
		if err := s.store.SaveLoan(ctx, &loan); err != nil {
			return dependency("save loan", err)
		}

		next, holder, err := s.nextLiveReservation(ctx, book.BookUid)
		if err != nil {
			return err
		}
		if next != nil {
			next.Status = models.ReservationCompleted
			next.FulfilledAt = &now
			if err := s.store.SaveReservation(ctx, next); err != nil {
				return dependency("save reservation", err)
			}
			book.Status = models.BookReserved
			member = holder
		} else {
			book.Status = models.BookAvailable
		}
		if err := s.store.SaveBook(ctx, &book); err != nil {
			return dependency("save book", err)
		}

		result = ReturnResult{Loan: loan, Book: book, Fulfilled: next}
		return nil
	})
	if err != nil {
		return ReturnResult{}, wrapStore("return book", err)
	}

	s.logger.Printf("Loan %s returned, book %s is now %s", result.Loan.LoanUid, result.Book.BookUid, result.Book.Status)

	if result.Fulfilled != nil {
		s.send(ctx, notify.Message{
			MemberUid: result.Fulfilled.MemberUid,
			Recipient: member.Email,
			Template:  notify.TemplateBookAvailable,
			Params: map[string]string{
				"member_name": member.Name,
				"book_title":  result.Book.Title,
			},
		})
	}
	return result, nil
}

// nextLiveReservation returns the queue head whose member still exists,
// with that member. Reservations left behind by deleted members are
// cancelled on the way.
func (s *Service) nextLiveReservation(ctx context.Context, bookUid string) (*models.Reservation, models.Member, error) {
	for {
		next, err := s.store.NextPendingReservation(ctx, bookUid)
		if err != nil {
			return nil, models.Member{}, dependency("next pending reservation", err)
		}
		if next == nil {
			return nil, models.Member{}, nil
		}
		member, err := s.store.GetMember(ctx, next.MemberUid)
		if err == nil {
			return next, member, nil
		}
		if !isNotFound(err) {
			return nil, models.Member{}, dependency("get member", err)
		}
		s.logger.Printf("Reservation %s belongs to a deleted member, cancelling it", next.ReservationUid)
		next.Status = models.ReservationCancelled
		if err := s.store.SaveReservation(ctx, next); err != nil {
			return nil, models.Member{}, dependency("save reservation", err)
		}
	}
}

func (s *Service) GetLoan(ctx context.Context, loanUid string) (models.Loan, error) {
	id, err := parseID(loanUid, "loan")
	if err != nil {
		return models.Loan{}, err
	}
	loan, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return models.Loan{}, lookup("get loan", err, ErrLoanNotFound)
	}
	return loan, nil
}

func (s *Service) ListLoans(ctx context.Context, filter models.LoanFilter) ([]models.Loan, error) {
	var err error
	if filter.BookUid, err = parseOptionalID(filter.BookUid, "book"); err != nil {
		return nil, err
	}
	if filter.MemberUid, err = parseOptionalID(filter.MemberUid, "member"); err != nil {
		return nil, err
	}
	loans, err := s.store.ListLoans(ctx, filter)
	if err != nil {
		return nil, dependency("list loans", err)
	}
	return loans, nil
}
