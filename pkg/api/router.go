// Package api exposes the lifecycle engine over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UserHeader carries the login of the calling user.
const UserHeader = "X-User-Name"

type Handler struct {
	svc    *lifecycle.Service
	pinger Pinger
}

// NewRouter builds the gin engine with every library route registered.
func NewRouter(svc *lifecycle.Service, pinger Pinger) *gin.Engine {
	h := &Handler{svc: svc, pinger: pinger}

	server := gin.New()
	server.Use(gin.Logger(), gin.Recovery())

	v1 := server.Group("/api/v1")

	v1.GET("/books", h.listBooks)
	v1.POST("/books", h.createBook)
	v1.GET("/books/:bookUid", h.getBook)
	v1.PUT("/books/:bookUid", h.updateBook)
	v1.DELETE("/books/:bookUid", h.deleteBook)

	v1.GET("/members", h.listMembers)
	v1.POST("/members", h.createMember)
	v1.GET("/members/:memberUid", h.getMember)
	v1.PUT("/members/:memberUid", h.updateMember)
	v1.DELETE("/members/:memberUid", h.deleteMember)
	v1.GET("/members/:memberUid/loans", h.memberLoans)
	v1.GET("/members/:memberUid/reservations", h.memberReservations)

	v1.GET("/loans", h.listLoans)
	v1.POST("/loans", h.createLoan)
	v1.GET("/loans/:loanUid", h.getLoan)
	v1.POST("/loans/:loanUid/return", h.returnBook)

	v1.GET("/reservations", h.listReservations)
	v1.POST("/reservations", h.createReservation)
	v1.GET("/reservations/:reservationUid", h.getReservation)
	v1.POST("/reservations/:reservationUid/cancel", h.cancelReservation)

	v1.GET("/me/loans", h.myLoans)
	v1.GET("/me/reservations", h.myReservations)

	v1.GET("/reports/on-loan", h.booksOnLoan)
	v1.GET("/reports/overdue", h.overdueReport)

	v1.POST("/jobs/scan-overdue", h.scanOverdue)
	v1.POST("/jobs/notify-overdue", h.notifyOverdue)

	server.GET("/manage/health", h.healthCheck)

	return server
}

func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"details": "Library service is active",
	})
}

// pageParams reads page and size the way every list endpoint accepts them.
func pageParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}
	return page, size
}

// paged slices items for the requested page and wraps them in the list envelope.
func paged[T any](c *gin.Context, items []T, render func(T) gin.H) gin.H {
	page, size := pageParams(c)
	total := len(items)

	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]gin.H, 0, end-start)
	for _, item := range items[start:end] {
		out = append(out, render(item))
	}
	return gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": total,
		"items":         out,
	}
}
