package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
	"libraryapp/pkg/models"
)

type reservationRequest struct {
	BookUid   string `json:"bookUid" binding:"required"`
	MemberUid string `json:"memberUid" binding:"required"`
}

func (h *Handler) listReservations(c *gin.Context) {
	list, err := h.svc.ListReservations(c.Request.Context(), models.ReservationFilter{
		BookUid:   c.Query("bookUid"),
		MemberUid: c.Query("memberUid"),
		Status:    models.ReservationStatus(c.Query("status")),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, list, reservationJSON))
}

func (h *Handler) createReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.CreateReservation(c.Request.Context(), lifecycle.CreateReservationInput{
		BookUid:   req.BookUid,
		MemberUid: req.MemberUid,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/reservations/"+res.ReservationUid)
	c.JSON(http.StatusCreated, reservationJSON(res))
}

func (h *Handler) getReservation(c *gin.Context) {
	res, err := h.svc.GetReservation(c.Request.Context(), c.Param("reservationUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservationJSON(res))
}

func (h *Handler) cancelReservation(c *gin.Context) {
	res, err := h.svc.CancelReservation(c.Request.Context(), c.Param("reservationUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservationJSON(res))
}
