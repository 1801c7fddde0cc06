package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type BookStatus string

const (
	BookAvailable BookStatus = "Available"
	BookOnLoan    BookStatus = "On Loan"
	BookReserved  BookStatus = "Reserved"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookAvailable, BookOnLoan, BookReserved:
		return true
	}
	return false
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationCompleted ReservationStatus = "Completed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

type Book struct {
	ID          uint       `gorm:"primaryKey"`
	BookUid     string     `gorm:"type:uuid;uniqueIndex;not null"`
	Title       string     `gorm:"size:255;not null"`
	Author      string     `gorm:"size:255"`
	PublishDate *time.Time `gorm:"type:date"`
	ISBN        string     `gorm:"column:isbn;size:32;uniqueIndex;not null"`
	Status      BookStatus `gorm:"size:20;not null;default:'Available'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Member struct {
	ID           uint   `gorm:"primaryKey"`
	MemberUid    string `gorm:"type:uuid;uniqueIndex;not null"`
	Name         string `gorm:"size:120;not null"`
	MembershipID string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	Phone        string `gorm:"size:32"`
	ExternalUser string `gorm:"size:120;index"` // login of the linked caller, if any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Loan is a historical record and is never deleted.
type Loan struct {
	ID         uint      `gorm:"primaryKey"`
	LoanUid    string    `gorm:"type:uuid;uniqueIndex;not null"`
	BookUid    string    `gorm:"type:uuid;index;not null"`
	MemberUid  string    `gorm:"type:uuid;index;not null"`
	LoanDate   time.Time `gorm:"not null"`
	DueDate    time.Time `gorm:"index;not null"`
	Returned   bool      `gorm:"not null;default:false"`
	Overdue    bool      `gorm:"not null;default:false"`
	ReturnedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Reservation struct {
	ID              uint              `gorm:"primaryKey"`
	ReservationUid  string            `gorm:"type:uuid;uniqueIndex;not null"`
	BookUid         string            `gorm:"type:uuid;index;not null"`
	MemberUid       string            `gorm:"type:uuid;index;not null"`
	ReservationDate time.Time         `gorm:"not null"`
	Status          ReservationStatus `gorm:"size:20;not null"`
	FulfilledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// All lists every record type for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Book{}, &Member{}, &Loan{}, &Reservation{}}
}

// LoanFilter narrows ListLoans. Zero fields do not filter.
type LoanFilter struct {
	BookUid   string
	MemberUid string
	Returned  *bool
	Overdue   *bool
	DueBefore time.Time
	// NewestFirst orders by loan date descending instead of due date ascending.
	NewestFirst bool
}

// ReservationFilter narrows ListReservations. Results are newest first.
type ReservationFilter struct {
	BookUid   string
	MemberUid string
	Status    ReservationStatus
}

// Date truncates t to its UTC calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Bool(b bool) *bool {
	return &b
}
