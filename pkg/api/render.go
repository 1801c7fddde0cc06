package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
	"libraryapp/pkg/models"
)

func formatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

func formatDatePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// parseDate reads an optional YYYY-MM-DD value; empty input gives the zero time.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func bookJSON(b models.Book) gin.H {
	return gin.H{
		"bookUid":     b.BookUid,
		"title":       b.Title,
		"author":      b.Author,
		"publishDate": formatDatePtr(b.PublishDate),
		"isbn":        b.ISBN,
		"status":      b.Status,
	}
}

func memberJSON(m models.Member) gin.H {
	return gin.H{
		"memberUid":    m.MemberUid,
		"name":         m.Name,
		"membershipId": m.MembershipID,
		"email":        m.Email,
		"phone":        m.Phone,
		"username":     m.ExternalUser,
	}
}

func loanJSON(l models.Loan) gin.H {
	return gin.H{
		"loanUid":    l.LoanUid,
		"bookUid":    l.BookUid,
		"memberUid":  l.MemberUid,
		"loanDate":   formatDate(l.LoanDate),
		"dueDate":    formatDate(l.DueDate),
		"returned":   l.Returned,
		"overdue":    l.Overdue,
		"returnedAt": formatTimePtr(l.ReturnedAt),
	}
}

func loanViewJSON(v lifecycle.LoanView) gin.H {
	out := loanJSON(v.Loan)
	out["book"] = gin.H{
		"title":  v.BookTitle,
		"author": v.BookAuthor,
		"isbn":   v.BookISBN,
	}
	out["member"] = gin.H{
		"name":  v.MemberName,
		"email": v.MemberEmail,
	}
	return out
}

func reservationJSON(r models.Reservation) gin.H {
	return gin.H{
		"reservationUid":  r.ReservationUid,
		"bookUid":         r.BookUid,
		"memberUid":       r.MemberUid,
		"reservationDate": r.ReservationDate.UTC().Format(time.RFC3339),
		"status":          r.Status,
		"fulfilledAt":     formatTimePtr(r.FulfilledAt),
	}
}

func reservationViewJSON(v lifecycle.ReservationView) gin.H {
	out := reservationJSON(v.Reservation)
	out["book"] = gin.H{
		"title":  v.BookTitle,
		"author": v.BookAuthor,
	}
	return out
}
