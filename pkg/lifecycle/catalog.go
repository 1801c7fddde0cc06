package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"libraryapp/pkg/models"
)

type CreateBookInput struct {
	Title       string
	Author      string
	PublishDate *time.Time
	ISBN        string
}

func (s *Service) CreateBook(ctx context.Context, in CreateBookInput) (models.Book, error) {
	title := strings.TrimSpace(in.Title)
	isbn := strings.TrimSpace(in.ISBN)
	if title == "" || isbn == "" {
		return models.Book{}, failf(ErrInvalidInput, "title and isbn are required")
	}

	book := models.Book{
		BookUid:     uuid.New().String(),
		Title:       title,
		Author:      strings.TrimSpace(in.Author),
		PublishDate: datePtr(in.PublishDate),
		ISBN:        isbn,
		Status:      models.BookAvailable,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureISBNFree(ctx, isbn, ""); err != nil {
			return err
		}
		if err := s.store.CreateBook(ctx, &book); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return failf(ErrDuplicateISBN, "a book with ISBN %q already exists", isbn)
			}
			return dependency("create book", err)
		}
		return nil
	})
	if err != nil {
		return models.Book{}, wrapStore("create book", err)
	}
	return book, nil
}

func (s *Service) GetBook(ctx context.Context, bookUid string) (models.Book, error) {
	id, err := parseID(bookUid, "book")
	if err != nil {
		return models.Book{}, err
	}
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return models.Book{}, lookup("get book", err, ErrBookNotFound)
	}
	return book, nil
}

func (s *Service) ListBooks(ctx context.Context, status models.BookStatus) ([]models.Book, error) {
	if status != "" && !status.Valid() {
		return nil, failf(ErrInvalidInput, "unknown book status %q", status)
	}
	books, err := s.store.ListBooks(ctx, status)
	if err != nil {
		return nil, dependency("list books", err)
	}
	return books, nil
}

// UpdateBookInput holds the fields to change; nil fields are left alone.
// Status is derived from loans and reservations and cannot be set here.
type UpdateBookInput struct {
	Title       *string
	Author      *string
	PublishDate *time.Time
	ISBN        *string
}

func (s *Service) UpdateBook(ctx context.Context, bookUid string, in UpdateBookInput) (models.Book, error) {
	id, err := parseID(bookUid, "book")
	if err != nil {
		return models.Book{}, err
	}

	var book models.Book
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		book, err = s.store.LockBook(ctx, id)
		if err != nil {
			return lookup("lock book", err, ErrBookNotFound)
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return failf(ErrInvalidInput, "title must not be empty")
			}
			book.Title = title
		}
		if in.Author != nil {
			book.Author = strings.TrimSpace(*in.Author)
		}
		if in.PublishDate != nil {
			book.PublishDate = datePtr(in.PublishDate)
		}
		if in.ISBN != nil {
			isbn := strings.TrimSpace(*in.ISBN)
			if isbn == "" {
				return failf(ErrInvalidInput, "isbn must not be empty")
			}
			if isbn != book.ISBN {
				if err := s.ensureISBNFree(ctx, isbn, book.BookUid); err != nil {
					return err
				}
			}
			book.ISBN = isbn
		}
		if err := s.store.SaveBook(ctx, &book); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return failf(ErrDuplicateISBN, "a book with ISBN %q already exists", book.ISBN)
			}
			return dependency("save book", err)
		}
		return nil
	})
	if err != nil {
		return models.Book{}, wrapStore("update book", err)
	}
	return book, nil
}

// DeleteBook removes a book that is not on loan.
func (s *Service) DeleteBook(ctx context.Context, bookUid string) error {
	id, err := parseID(bookUid, "book")
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.store.LockBook(ctx, id)
		if err != nil {
			return lookup("lock book", err, ErrBookNotFound)
		}
		active, err := s.store.FindActiveLoan(ctx, id, "")
		if err != nil {
			return dependency("find active loan", err)
		}
		if active != nil || book.Status == models.BookOnLoan {
			return failf(ErrBookOnLoan, "cannot delete book %q: it is currently on loan", book.Title)
		}
		queued, err := s.store.ListReservations(ctx, models.ReservationFilter{BookUid: id, Status: models.ReservationPending})
		if err != nil {
			return dependency("list reservations", err)
		}
		for i := range queued {
			queued[i].Status = models.ReservationCancelled
			if err := s.store.SaveReservation(ctx, &queued[i]); err != nil {
				return dependency("save reservation", err)
			}
		}
		if err := s.store.DeleteBook(ctx, id); err != nil {
			return lookup("delete book", err, ErrBookNotFound)
		}
		return nil
	})
	return wrapStore("delete book", err)
}

func (s *Service) ensureISBNFree(ctx context.Context, isbn, selfUid string) error {
	existing, err := s.store.FindBookByISBN(ctx, isbn)
	if err != nil {
		return dependency("find book by isbn", err)
	}
	if existing != nil && existing.BookUid != selfUid {
		return failf(ErrDuplicateISBN, "a book with ISBN %q already exists", isbn)
	}
	return nil
}

type CreateMemberInput struct {
	Name         string
	MembershipID string
	Email        string
	Phone        string
	ExternalUser string
}

func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (models.Member, error) {
	member := models.Member{
		MemberUid:    uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		MembershipID: strings.TrimSpace(in.MembershipID),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		ExternalUser: strings.TrimSpace(in.ExternalUser),
	}
	if member.Name == "" || member.MembershipID == "" || member.Email == "" {
		return models.Member{}, failf(ErrInvalidInput, "name, membership id and email are required")
	}
	if !strings.Contains(member.Email, "@") {
		return models.Member{}, failf(ErrInvalidInput, "invalid email %q", member.Email)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureMemberUnique(ctx, member); err != nil {
			return err
		}
		if err := s.store.CreateMember(ctx, &member); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return err
			}
			return dependency("create member", err)
		}
		return nil
	})
	if errors.Is(err, models.ErrDuplicate) {
		return models.Member{}, s.memberConflict(ctx, member)
	}
	if err != nil {
		return models.Member{}, wrapStore("create member", err)
	}
	return member, nil
}

func (s *Service) GetMember(ctx context.Context, memberUid string) (models.Member, error) {
	id, err := parseID(memberUid, "member")
	if err != nil {
		return models.Member{}, err
	}
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, lookup("get member", err, ErrMemberNotFound)
	}
	return member, nil
}

func (s *Service) ListMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, dependency("list members", err)
	}
	return members, nil
}

type UpdateMemberInput struct {
	Name         *string
	MembershipID *string
	Email        *string
	Phone        *string
	ExternalUser *string
}

func (s *Service) UpdateMember(ctx context.Context, memberUid string, in UpdateMemberInput) (models.Member, error) {
	id, err := parseID(memberUid, "member")
	if err != nil {
		return models.Member{}, err
	}

	var member models.Member
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		member, err = s.store.GetMember(ctx, id)
		if err != nil {
			return lookup("get member", err, ErrMemberNotFound)
		}
		if in.Name != nil {
			member.Name = strings.TrimSpace(*in.Name)
		}
		if in.MembershipID != nil {
			member.MembershipID = strings.TrimSpace(*in.MembershipID)
		}
		if in.Email != nil {
			member.Email = strings.ToLower(strings.TrimSpace(*in.Email))
		}
		if in.Phone != nil {
			member.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.ExternalUser != nil {
			member.ExternalUser = strings.TrimSpace(*in.ExternalUser)
		}
		if member.Name == "" || member.MembershipID == "" || member.Email == "" {
			return failf(ErrInvalidInput, "name, membership id and email are required")
		}
		if err := s.ensureMemberUnique(ctx, member); err != nil {
			return err
		}
		if err := s.store.SaveMember(ctx, &member); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return err
			}
			return dependency("save member", err)
		}
		return nil
	})
	if errors.Is(err, models.ErrDuplicate) {
		return models.Member{}, s.memberConflict(ctx, member)
	}
	if err != nil {
		return models.Member{}, wrapStore("update member", err)
	}
	return member, nil
}

// DeleteMember removes a member without open loans and cancels their pending
// reservations. Past loans stay as history.
func (s *Service) DeleteMember(ctx context.Context, memberUid string) error {
	id, err := parseID(memberUid, "member")
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetMember(ctx, id); err != nil {
			return lookup("get member", err, ErrMemberNotFound)
		}
		open, err := s.store.ListLoans(ctx, models.LoanFilter{MemberUid: id, Returned: models.Bool(false)})
		if err != nil {
			return dependency("list loans", err)
		}
		if len(open) > 0 {
			return failf(ErrMemberHasLoans, "cannot delete member: they have %d outstanding loan(s)", len(open))
		}
		if err := s.cancelQueuedFor(ctx, id); err != nil {
			return err
		}
		if err := s.store.DeleteMember(ctx, id); err != nil {
			return lookup("delete member", err, ErrMemberNotFound)
		}
		return nil
	})
	return wrapStore("delete member", err)
}

func (s *Service) cancelQueuedFor(ctx context.Context, memberUid string) error {
	queued, err := s.store.ListReservations(ctx, models.ReservationFilter{MemberUid: memberUid, Status: models.ReservationPending})
	if err != nil {
		return dependency("list reservations", err)
	}
	for i := range queued {
		book, err := s.store.LockBook(ctx, queued[i].BookUid)
		bookGone := isNotFound(err)
		if err != nil && !bookGone {
			return dependency("lock book", err)
		}
		queued[i].Status = models.ReservationCancelled
		if err := s.store.SaveReservation(ctx, &queued[i]); err != nil {
			return dependency("save reservation", err)
		}
		if bookGone {
			continue
		}
		if err := s.releaseIfIdle(ctx, &book); err != nil {
			return err
		}
	}
	return nil
}

// memberConflict names the unique field a write collided with after the
// transaction lost a race on the unique index.
func (s *Service) memberConflict(ctx context.Context, member models.Member) error {
	if err := s.ensureMemberUnique(ctx, member); err != nil {
		return err
	}
	return failf(ErrDuplicateMember, "member with membership id %q or email %q already exists", member.MembershipID, member.Email)
}

func (s *Service) ensureMemberUnique(ctx context.Context, member models.Member) error {
	byID, err := s.store.FindMemberByMembershipID(ctx, member.MembershipID)
	if err != nil {
		return dependency("find member by membership id", err)
	}
	if byID != nil && byID.MemberUid != member.MemberUid {
		return failf(ErrDuplicateMembershipID, "member with id %q already exists", member.MembershipID)
	}
	byEmail, err := s.store.FindMemberByEmail(ctx, member.Email)
	if err != nil {
		return dependency("find member by email", err)
	}
	if byEmail != nil && byEmail.MemberUid != member.MemberUid {
		return failf(ErrDuplicateEmail, "member with email %q already exists", member.Email)
	}
	return nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := models.Date(*t)
	return &d
}
