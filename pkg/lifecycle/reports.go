package lifecycle

import (
	"context"
	"strings"
	"time"

	"libraryapp/pkg/models"
)

// LoanView is a loan joined with the book and member it references.
type LoanView struct {
	models.Loan
	BookTitle   string
	BookAuthor  string
	BookISBN    string
	MemberName  string
	MemberEmail string
}

// ReservationView is a reservation joined with its book.
type ReservationView struct {
	models.Reservation
	BookTitle  string
	BookAuthor string
}

// MemberLoans lists a member's loan history, newest first.
func (s *Service) MemberLoans(ctx context.Context, memberUid string) ([]LoanView, error) {
	member, err := s.GetMember(ctx, memberUid)
	if err != nil {
		return nil, err
	}
	return s.loanViews(ctx, models.LoanFilter{MemberUid: member.MemberUid, NewestFirst: true})
}

// MemberReservations lists a member's reservations, newest first.
func (s *Service) MemberReservations(ctx context.Context, memberUid string) ([]ReservationView, error) {
	member, err := s.GetMember(ctx, memberUid)
	if err != nil {
		return nil, err
	}
	return s.reservationViews(ctx, models.ReservationFilter{MemberUid: member.MemberUid})
}

// MyLoans is MemberLoans for the member linked to the calling user.
func (s *Service) MyLoans(ctx context.Context, externalUser string) ([]LoanView, error) {
	member, err := s.memberForCaller(ctx, externalUser)
	if err != nil {
		return nil, err
	}
	return s.loanViews(ctx, models.LoanFilter{MemberUid: member.MemberUid, NewestFirst: true})
}

func (s *Service) MyReservations(ctx context.Context, externalUser string) ([]ReservationView, error) {
	member, err := s.memberForCaller(ctx, externalUser)
	if err != nil {
		return nil, err
	}
	return s.reservationViews(ctx, models.ReservationFilter{MemberUid: member.MemberUid})
}

// BooksOnLoanReport lists every open loan, most recent loan first.
func (s *Service) BooksOnLoanReport(ctx context.Context) ([]LoanView, error) {
	return s.loanViews(ctx, models.LoanFilter{Returned: models.Bool(false), NewestFirst: true})
}

// OverdueReport lists open loans due before today, oldest due date first,
// whether or not the scanner has flagged them yet.
func (s *Service) OverdueReport(ctx context.Context, today time.Time) ([]LoanView, error) {
	if today.IsZero() {
		today = s.clock.Now()
	}
	return s.loanViews(ctx, models.LoanFilter{Returned: models.Bool(false), DueBefore: models.Date(today)})
}

func (s *Service) memberForCaller(ctx context.Context, externalUser string) (models.Member, error) {
	externalUser = strings.TrimSpace(externalUser)
	if externalUser == "" {
		return models.Member{}, failf(ErrInvalidInput, "caller identity is required")
	}
	member, err := s.store.FindMemberByExternalUser(ctx, externalUser)
	if err != nil {
		return models.Member{}, dependency("find member by external user", err)
	}
	if member == nil {
		return models.Member{}, failf(ErrMemberNotFound, "member record not found for user %q", externalUser)
	}
	return *member, nil
}

func (s *Service) loanViews(ctx context.Context, filter models.LoanFilter) ([]LoanView, error) {
	loans, err := s.store.ListLoans(ctx, filter)
	if err != nil {
		return nil, dependency("list loans", err)
	}

	books := map[string]models.Book{}
	members := map[string]models.Member{}
	views := make([]LoanView, 0, len(loans))
	for _, loan := range loans {
		book, err := s.cachedBook(ctx, books, loan.BookUid)
		if err != nil {
			return nil, err
		}
		member, err := s.cachedMember(ctx, members, loan.MemberUid)
		if err != nil {
			return nil, err
		}
		views = append(views, LoanView{
			Loan:        loan,
			BookTitle:   book.Title,
			BookAuthor:  book.Author,
			BookISBN:    book.ISBN,
			MemberName:  member.Name,
			MemberEmail: member.Email,
		})
	}
	return views, nil
}

func (s *Service) reservationViews(ctx context.Context, filter models.ReservationFilter) ([]ReservationView, error) {
	list, err := s.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, dependency("list reservations", err)
	}

	books := map[string]models.Book{}
	views := make([]ReservationView, 0, len(list))
	for _, res := range list {
		book, err := s.cachedBook(ctx, books, res.BookUid)
		if err != nil {
			return nil, err
		}
		views = append(views, ReservationView{Reservation: res, BookTitle: book.Title, BookAuthor: book.Author})
	}
	return views, nil
}

// cachedBook tolerates deleted books: their history rows keep empty details.
func (s *Service) cachedBook(ctx context.Context, cache map[string]models.Book, uid string) (models.Book, error) {
	if b, ok := cache[uid]; ok {
		return b, nil
	}
	b, err := s.store.GetBook(ctx, uid)
	if err != nil && !isNotFound(err) {
		return models.Book{}, dependency("get book", err)
	}
	cache[uid] = b
	return b, nil
}

func (s *Service) cachedMember(ctx context.Context, cache map[string]models.Member, uid string) (models.Member, error) {
	if m, ok := cache[uid]; ok {
		return m, nil
	}
	m, err := s.store.GetMember(ctx, uid)
	if err != nil && !isNotFound(err) {
		return models.Member{}, dependency("get member", err)
	}
	cache[uid] = m
	return m, nil
}
