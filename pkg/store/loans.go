package store

import (
	"context"
	"time"

	"libraryapp/pkg/models"
)

func (s *Store) CreateLoan(ctx context.Context, loan *models.Loan) error {
	return translate("create loan", s.conn(ctx).Create(loan).Error)
}

func (s *Store) GetLoan(ctx context.Context, loanUid string) (models.Loan, error) {
	return first[models.Loan](s.conn(ctx), "get loan", "loan_uid = ?", loanUid)
}

func (s *Store) LockLoan(ctx context.Context, loanUid string) (models.Loan, error) {
	return first[models.Loan](forUpdate(s.conn(ctx)), "lock loan", "loan_uid = ?", loanUid)
}

func (s *Store) SaveLoan(ctx context.Context, loan *models.Loan) error {
	return translate("save loan", s.conn(ctx).Save(loan).Error)
}

// FindActiveLoan returns the non-returned loan of the book, optionally
// restricted to one member.
func (s *Store) FindActiveLoan(ctx context.Context, bookUid, memberUid string) (*models.Loan, error) {
	query := s.conn(ctx).Where("returned = ?", false)
	if memberUid != "" {
		query = query.Where("member_uid = ?", memberUid)
	}
	return find[models.Loan](query, "find active loan", "book_uid = ?", bookUid)
}

func (s *Store) ListLoans(ctx context.Context, filter models.LoanFilter) ([]models.Loan, error) {
	query := s.conn(ctx)
	if filter.BookUid != "" {
		query = query.Where("book_uid = ?", filter.BookUid)
	}
	if filter.MemberUid != "" {
		query = query.Where("member_uid = ?", filter.MemberUid)
	}
	if filter.Returned != nil {
		query = query.Where("returned = ?", *filter.Returned)
	}
	if filter.Overdue != nil {
		query = query.Where("overdue = ?", *filter.Overdue)
	}
	if !filter.DueBefore.IsZero() {
		query = query.Where("due_date < ?", filter.DueBefore)
	}
	if filter.NewestFirst {
		query = query.Order("loan_date DESC").Order("id DESC")
	} else {
		query = query.Order("due_date ASC").Order("id ASC")
	}

	var loans []models.Loan
	if err := query.Find(&loans).Error; err != nil {
		return nil, translate("list loans", err)
	}
	return loans, nil
}

// MarkOverdue flags every open, not yet flagged loan due before the given
// instant and reports how many rows changed.
func (s *Store) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.Loan{}).
		Where("returned = ? AND overdue = ? AND due_date < ?", false, false, before).
		Update("overdue", true)
	if res.Error != nil {
		return 0, translate("mark overdue", res.Error)
	}
	return res.RowsAffected, nil
}
