package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"libraryapp/pkg/models"
)

type CreateReservationInput struct {
	BookUid   string
	MemberUid string
}

// CreateReservation queues a member for a book that cannot be loaned right now.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (models.Reservation, error) {
	bookUid, err := parseID(in.BookUid, "book")
	if err != nil {
		return models.Reservation{}, err
	}
	memberUid, err := parseID(in.MemberUid, "member")
	if err != nil {
		return models.Reservation{}, err
	}

	var reservation models.Reservation
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.store.LockBook(ctx, bookUid)
		if err != nil {
			return lookup("lock book", err, ErrBookNotFound)
		}
		if _, err := s.store.GetMember(ctx, memberUid); err != nil {
			return lookup("get member", err, ErrMemberNotFound)
		}

		if book.Status == models.BookAvailable {
			return failf(ErrDirectLoanPossible, "book %q is available; loan it directly instead of reserving", book.Title)
		}
		pending, err := s.store.FindPendingReservation(ctx, bookUid, memberUid)
		if err != nil {
			return dependency("find pending reservation", err)
		}
		if pending != nil {
			return failf(ErrDuplicateReservation, "member already has a pending reservation for %q", book.Title)
		}
		active, err := s.store.FindActiveLoan(ctx, bookUid, memberUid)
		if err != nil {
			return dependency("find active loan", err)
		}
		if active != nil {
			return failf(ErrAlreadyOnLoan, "member already has %q on loan", book.Title)
		}

		reservation = models.Reservation{
			ReservationUid:  uuid.New().String(),
			BookUid:         bookUid,
			MemberUid:       memberUid,
			ReservationDate: s.clock.Now(),
			Status:          models.ReservationPending,
		}
		if err := s.store.CreateReservation(ctx, &reservation); err != nil {
			return dependency("create reservation", err)
		}

		if book.Status != models.BookReserved {
			book.Status = models.BookReserved
			if err := s.store.SaveBook(ctx, &book); err != nil {
				return dependency("save book", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Reservation{}, wrapStore("create reservation", err)
	}

	s.logger.Printf("Reservation %s created: book %s for member %s", reservation.ReservationUid, reservation.BookUid, reservation.MemberUid)
	return reservation, nil
}

// CancelReservation cancels a pending reservation. The book becomes Available
// once nothing is queued for it and no loan is open.
func (s *Service) CancelReservation(ctx context.Context, reservationUid string) (models.Reservation, error) {
	id, err := parseID(reservationUid, "reservation")
	if err != nil {
		return models.Reservation{}, err
	}

	var reservation models.Reservation
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.store.LockReservation(ctx, id)
		if err != nil {
			return lookup("lock reservation", err, ErrReservationNotFound)
		}
		if res.Status != models.ReservationPending {
			return failf(ErrNotCancellable, "reservation %s cannot be cancelled. Status: %s", res.ReservationUid, res.Status)
		}
		book, err := s.store.LockBook(ctx, res.BookUid)
		if err != nil {
			return lookup("lock book", err, ErrBookNotFound)
		}

		res.Status = models.ReservationCancelled
		if err := s.store.SaveReservation(ctx, &res); err != nil {
			return dependency("save reservation", err)
		}
		reservation = res
		return s.releaseIfIdle(ctx, &book)
	})
	if err != nil {
		return models.Reservation{}, wrapStore("cancel reservation", err)
	}

	s.logger.Printf("Reservation %s cancelled", reservation.ReservationUid)
	return reservation, nil
}

// releaseIfIdle makes a locked book Available once nothing is queued for it
// and no loan is open.
func (s *Service) releaseIfIdle(ctx context.Context, book *models.Book) error {
	remaining, err := s.store.CountPendingReservations(ctx, book.BookUid)
	if err != nil {
		return dependency("count pending reservations", err)
	}
	if remaining > 0 {
		return nil
	}
	active, err := s.store.FindActiveLoan(ctx, book.BookUid, "")
	if err != nil {
		return dependency("find active loan", err)
	}
	if active != nil || book.Status == models.BookAvailable {
		return nil
	}
	book.Status = models.BookAvailable
	if err := s.store.SaveBook(ctx, book); err != nil {
		return dependency("save book", err)
	}
	return nil
}

func (s *Service) GetReservation(ctx context.Context, reservationUid string) (models.Reservation, error) {
	id, err := parseID(reservationUid, "reservation")
	if err != nil {
		return models.Reservation{}, err
	}
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return models.Reservation{}, lookup("get reservation", err, ErrReservationNotFound)
	}
	return res, nil
}

func (s *Service) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, failf(ErrInvalidInput, "unknown reservation status %q", filter.Status)
	}
	var err error
	if filter.BookUid, err = parseOptionalID(filter.BookUid, "book"); err != nil {
		return nil, err
	}
	if filter.MemberUid, err = parseOptionalID(filter.MemberUid, "member"); err != nil {
		return nil, err
	}
	list, err := s.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, dependency("list reservations", err)
	}
	return list, nil
}
