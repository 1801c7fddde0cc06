package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
)

type memberRequest struct {
	Name         string `json:"name" binding:"required"`
	MembershipID string `json:"membershipId" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Phone        string `json:"phone"`
	Username     string `json:"username"`
}

type memberPatch struct {
	Name         *string `json:"name"`
	MembershipID *string `json:"membershipId"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Username     *string `json:"username"`
}

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, members, memberJSON))
}

func (h *Handler) createMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	member, err := h.svc.CreateMember(c.Request.Context(), lifecycle.CreateMemberInput{
		Name:         req.Name,
		MembershipID: req.MembershipID,
		Email:        req.Email,
		Phone:        req.Phone,
		ExternalUser: req.Username,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/members/"+member.MemberUid)
	c.JSON(http.StatusCreated, memberJSON(member))
}

func (h *Handler) getMember(c *gin.Context) {
	member, err := h.svc.GetMember(c.Request.Context(), c.Param("memberUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberJSON(member))
}

func (h *Handler) updateMember(c *gin.Context) {
	var req memberPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	member, err := h.svc.UpdateMember(c.Request.Context(), c.Param("memberUid"), lifecycle.UpdateMemberInput{
		Name:         req.Name,
		MembershipID: req.MembershipID,
		Email:        req.Email,
		Phone:        req.Phone,
		ExternalUser: req.Username,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberJSON(member))
}

func (h *Handler) deleteMember(c *gin.Context) {
	if err := h.svc.DeleteMember(c.Request.Context(), c.Param("memberUid")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) memberLoans(c *gin.Context) {
	views, err := h.svc.MemberLoans(c.Request.Context(), c.Param("memberUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, views, loanViewJSON))
}

func (h *Handler) memberReservations(c *gin.Context) {
	views, err := h.svc.MemberReservations(c.Request.Context(), c.Param("memberUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, views, reservationViewJSON))
}
