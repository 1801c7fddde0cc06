package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/models"
)

func (h *Handler) myLoans(c *gin.Context) {
	views, err := h.svc.MyLoans(c.Request.Context(), c.GetHeader(UserHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, views, loanViewJSON))
}

func (h *Handler) myReservations(c *gin.Context) {
	views, err := h.svc.MyReservations(c.Request.Context(), c.GetHeader(UserHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, views, reservationViewJSON))
}

func (h *Handler) booksOnLoan(c *gin.Context) {
	views, err := h.svc.BooksOnLoanReport(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, views, loanViewJSON))
}

func (h *Handler) overdueReport(c *gin.Context) {
	today, err := parseDate("date", c.Query("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	views, err := h.svc.OverdueReport(c.Request.Context(), today)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, views, loanViewJSON))
}

func (h *Handler) scanOverdue(c *gin.Context) {
	today, err := parseDate("date", c.Query("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	marked, err := h.svc.ScanOverdue(c.Request.Context(), today)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"marked": marked}
	if !today.IsZero() {
		body["date"] = today.Format(models.DateLayout)
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) notifyOverdue(c *gin.Context) {
	report, err := h.svc.NotifyOverdue(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	results := make([]gin.H, len(report.Results))
	for i, r := range report.Results {
		results[i] = gin.H{
			"loanUid":   r.LoanUid,
			"memberUid": r.MemberUid,
			"sent":      r.Sent,
			"error":     r.Error,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"processed": report.Processed,
		"sent":      report.Sent,
		"results":   results,
	})
}
