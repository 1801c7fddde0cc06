package store

import (
	"context"

	"libraryapp/pkg/models"
)

func (s *Store) CreateReservation(ctx context.Context, reservation *models.Reservation) error {
	return translate("create reservation", s.conn(ctx).Create(reservation).Error)
}

func (s *Store) GetReservation(ctx context.Context, reservationUid string) (models.Reservation, error) {
	return first[models.Reservation](s.conn(ctx), "get reservation", "reservation_uid = ?", reservationUid)
}

func (s *Store) LockReservation(ctx context.Context, reservationUid string) (models.Reservation, error) {
	return first[models.Reservation](forUpdate(s.conn(ctx)), "lock reservation", "reservation_uid = ?", reservationUid)
}

func (s *Store) SaveReservation(ctx context.Context, reservation *models.Reservation) error {
	return translate("save reservation", s.conn(ctx).Save(reservation).Error)
}

func (s *Store) FindPendingReservation(ctx context.Context, bookUid, memberUid string) (*models.Reservation, error) {
	return find[models.Reservation](s.conn(ctx), "find pending reservation",
		"book_uid = ? AND member_uid = ? AND status = ?", bookUid, memberUid, models.ReservationPending)
}

// NextPendingReservation returns the head of the book's queue: the earliest
// reservation date, then the earliest inserted row.
func (s *Store) NextPendingReservation(ctx context.Context, bookUid string) (*models.Reservation, error) {
	var recs []models.Reservation
	err := s.conn(ctx).
		Where("book_uid = ? AND status = ?", bookUid, models.ReservationPending).
		Order("reservation_date ASC").
		Order("id ASC").
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, translate("next pending reservation", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (s *Store) CountPendingReservations(ctx context.Context, bookUid string) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Reservation{}).
		Where("book_uid = ? AND status = ?", bookUid, models.ReservationPending).
		Count(&count).Error
	if err != nil {
		return 0, translate("count pending reservations", err)
	}
	return count, nil
}

func (s *Store) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	query := s.conn(ctx)
	if filter.BookUid != "" {
		query = query.Where("book_uid = ?", filter.BookUid)
	}
	if filter.MemberUid != "" {
		query = query.Where("member_uid = ?", filter.MemberUid)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var reservations []models.Reservation
	if err := query.Order("reservation_date DESC").Order("id DESC").Find(&reservations).Error; err != nil {
		return nil, translate("list reservations", err)
	}
	return reservations, nil
}
