package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
	"libraryapp/pkg/models"
)

type loanRequest struct {
	BookUid   string `json:"bookUid" binding:"required"`
	MemberUid string `json:"memberUid" binding:"required"`
	LoanDate  string `json:"loanDate"`
	DueDate   string `json:"dueDate"`
}

func (h *Handler) listLoans(c *gin.Context) {
	filter := models.LoanFilter{
		BookUid:   c.Query("bookUid"),
		MemberUid: c.Query("memberUid"),
	}
	for key, dst := range map[string]**bool{"returned": &filter.Returned, "overdue": &filter.Overdue} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, key+" must be true or false")
			return
		}
		*dst = models.Bool(v)
	}

	loans, err := h.svc.ListLoans(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, loans, loanJSON))
}

func (h *Handler) createLoan(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	loanDate, err := parseDate("loanDate", req.LoanDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	dueDate, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	loan, err := h.svc.CreateLoan(c.Request.Context(), lifecycle.CreateLoanInput{
		BookUid:   req.BookUid,
		MemberUid: req.MemberUid,
		LoanDate:  loanDate,
		DueDate:   dueDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/loans/"+loan.LoanUid)
	c.JSON(http.StatusCreated, loanJSON(loan))
}

func (h *Handler) getLoan(c *gin.Context) {
	loan, err := h.svc.GetLoan(c.Request.Context(), c.Param("loanUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanJSON(loan))
}

func (h *Handler) returnBook(c *gin.Context) {
	res, err := h.svc.ReturnBook(c.Request.Context(), c.Param("loanUid"))
	if err != nil {
		writeError(c, err)
		return
	}

	var fulfilled interface{}
	if res.Fulfilled != nil {
		fulfilled = reservationJSON(*res.Fulfilled)
	}
	c.JSON(http.StatusOK, gin.H{
		"loan":                 loanJSON(res.Loan),
		"book":                 bookJSON(res.Book),
		"fulfilledReservation": fulfilled,
	})
}
