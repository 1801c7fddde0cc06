package main

import (
	"context"
	"errors"
	"log"
	"time"

	"libraryapp/pkg/lifecycle"
)

var sampleBooks = []lifecycle.CreateBookInput{
	{Title: "The C Programming Language", Author: "Brian W. Kernighan, Dennis M. Ritchie", ISBN: "978-0131103627", PublishDate: date(1988, 3, 22)},
	{Title: "The Go Programming Language", Author: "Alan A. A. Donovan, Brian W. Kernighan", ISBN: "978-0134190440", PublishDate: date(2015, 10, 26)},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "978-1449373320", PublishDate: date(2017, 3, 16)},
	{Title: "The Pragmatic Programmer", Author: "Andrew Hunt, David Thomas", ISBN: "978-0201616224", PublishDate: date(1999, 10, 20)},
}

var sampleMembers = []lifecycle.CreateMemberInput{
	{Name: "Test Max", MembershipID: "LIB-0001", Email: "max@example.com", Phone: "+7 900 000-00-01", ExternalUser: "Test Max"},
	{Name: "Ada Reader", MembershipID: "LIB-0002", Email: "ada@example.com", ExternalUser: "ada"},
}

// seed creates the sample records that are not there yet; running it twice
// changes nothing.
func seed(ctx context.Context, svc *lifecycle.Service) (books int, members int, err error) {
	for _, in := range sampleBooks {
		b, err := svc.CreateBook(ctx, in)
		switch {
		case errors.Is(err, lifecycle.ErrDuplicateISBN):
			continue
		case err != nil:
			return books, members, err
		}
		log.Printf("Created test book: %s", b.Title)
		books++
	}

	for _, in := range sampleMembers {
		m, err := svc.CreateMember(ctx, in)
		switch {
		case errors.Is(err, lifecycle.ErrDuplicateMembershipID), errors.Is(err, lifecycle.ErrDuplicateEmail), errors.Is(err, lifecycle.ErrDuplicateMember):
			continue
		case err != nil:
			return books, members, err
		}
		log.Printf("Created test member: %s", m.Name)
		members++
	}

	log.Println("Library test data seeded")
	return books, members, nil
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
