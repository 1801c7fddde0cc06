package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapp/pkg/config"
	"libraryapp/pkg/database"
	"libraryapp/pkg/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(config.Database{Driver: database.DriverSQLite, SQLitePath: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return New(db)
}

func newBook(isbn string) *models.Book {
	return &models.Book{
		BookUid: uuid.New().String(),
		Title:   "Test Book " + isbn,
		Author:  "Test Author",
		ISBN:    isbn,
		Status:  models.BookAvailable,
	}
}

func TestBookRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	book := newBook("978-0")
	require.NoError(t, s.CreateBook(ctx, book))
	assert.NotZero(t, book.ID)

	got, err := s.GetBook(ctx, book.BookUid)
	require.NoError(t, err)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, models.BookAvailable, got.Status)

	locked, err := s.LockBook(ctx, book.BookUid)
	require.NoError(t, err)
	assert.Equal(t, book.ID, locked.ID)

	byISBN, err := s.FindBookByISBN(ctx, "978-0")
	require.NoError(t, err)
	require.NotNil(t, byISBN)
	assert.Equal(t, book.BookUid, byISBN.BookUid)

	missing, err := s.FindBookByISBN(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetMissingRecordsReturnNotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := uuid.New().String()

	_, err := s.GetBook(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetMember(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetLoan(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.LockReservation(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteBook(ctx, id), models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMember(ctx, id), models.ErrNotFound)
}

func TestDuplicateISBNIsTranslated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, newBook("978-1")))
	err := s.CreateBook(ctx, newBook("978-1"))
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestListBooksByStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	onLoan := newBook("978-2")
	onLoan.Status = models.BookOnLoan
	require.NoError(t, s.CreateBook(ctx, newBook("978-3")))
	require.NoError(t, s.CreateBook(ctx, onLoan))

	all, err := s.ListBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	loaned, err := s.ListBooks(ctx, models.BookOnLoan)
	require.NoError(t, err)
	require.Len(t, loaned, 1)
	assert.Equal(t, onLoan.BookUid, loaned[0].BookUid)
}

func TestNextPendingReservationIsFIFO(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	bookUid := uuid.New().String()
	day := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	mk := func(date time.Time, status models.ReservationStatus) *models.Reservation {
		r := &models.Reservation{
			ReservationUid:  uuid.New().String(),
			BookUid:         bookUid,
			MemberUid:       uuid.New().String(),
			ReservationDate: date,
			Status:          status,
		}
		require.NoError(t, s.CreateReservation(ctx, r))
		return r
	}

	mk(day.Add(-time.Hour), models.ReservationCancelled)
	later := mk(day.Add(time.Hour), models.ReservationPending)
	tiedFirst := mk(day, models.ReservationPending)
	mk(day, models.ReservationPending)

	head, err := s.NextPendingReservation(ctx, bookUid)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, tiedFirst.ReservationUid, head.ReservationUid)

	count, err := s.CountPendingReservations(ctx, bookUid)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	pending, err := s.FindPendingReservation(ctx, bookUid, later.MemberUid)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, later.ReservationUid, pending.ReservationUid)

	none, err := s.NextPendingReservation(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMarkOverdueIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	mk := func(due time.Time, returned bool) *models.Loan {
		l := &models.Loan{
			LoanUid:   uuid.New().String(),
			BookUid:   uuid.New().String(),
			MemberUid: uuid.New().String(),
			LoanDate:  due.AddDate(0, 0, -14),
			DueDate:   due,
			Returned:  returned,
		}
		require.NoError(t, s.CreateLoan(ctx, l))
		return l
	}

	late := mk(today.AddDate(0, 0, -1), false)
	mk(today.AddDate(0, 0, -3), true)
	mk(today, false)
	mk(today.AddDate(0, 0, 1), false)

	n, err := s.MarkOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetLoan(ctx, late.LoanUid)
	require.NoError(t, err)
	assert.True(t, got.Overdue)

	n, err = s.MarkOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	overdue, err := s.ListLoans(ctx, models.LoanFilter{Overdue: models.Bool(true), Returned: models.Bool(false)})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.LoanUid, overdue[0].LoanUid)
}

func TestFindActiveLoan(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	bookUid := uuid.New().String()
	memberUid := uuid.New().String()

	loan := &models.Loan{
		LoanUid:   uuid.New().String(),
		BookUid:   bookUid,
		MemberUid: memberUid,
		LoanDate:  time.Now().UTC(),
		DueDate:   time.Now().UTC().AddDate(0, 0, 14),
	}
	require.NoError(t, s.CreateLoan(ctx, loan))

	found, err := s.FindActiveLoan(ctx, bookUid, "")
	require.NoError(t, err)
	require.NotNil(t, found)

	other, err := s.FindActiveLoan(ctx, bookUid, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, other)

	loan.Returned = true
	require.NoError(t, s.SaveLoan(ctx, loan))

	found, err = s.FindActiveLoan(ctx, bookUid, memberUid)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	book := newBook("978-9")
	errAbort := errors.New("abort")

	err := s.WithTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, s.CreateBook(txCtx, book))
		return s.WithTx(txCtx, func(inner context.Context) error {
			return errAbort
		})
	})
	assert.ErrorIs(t, err, errAbort)

	_, err = s.GetBook(ctx, book.BookUid)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemberLookups(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	m := &models.Member{
		MemberUid:    uuid.New().String(),
		Name:         "Alice",
		MembershipID: "M-001",
		Email:        "alice@example.com",
		ExternalUser: "alice",
	}
	require.NoError(t, s.CreateMember(ctx, m))

	byID, err := s.FindMemberByMembershipID(ctx, "M-001")
	require.NoError(t, err)
	require.NotNil(t, byID)
	byEmail, err := s.FindMemberByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	byUser, err := s.FindMemberByExternalUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byUser)
	assert.Equal(t, m.MemberUid, byUser.MemberUid)

	dup := *m
	dup.ID = 0
	dup.MemberUid = uuid.New().String()
	dup.MembershipID = "M-002"
	assert.ErrorIs(t, s.CreateMember(ctx, &dup), models.ErrDuplicate)

	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
