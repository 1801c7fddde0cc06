package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
	"libraryapp/pkg/models"
)

type bookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author"`
	PublishDate string `json:"publishDate"`
	ISBN        string `json:"isbn" binding:"required"`
}

type bookPatch struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	PublishDate *string `json:"publishDate"`
	ISBN        *string `json:"isbn"`
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.svc.ListBooks(c.Request.Context(), models.BookStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(c, books, bookJSON))
}

func (h *Handler) createBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	published, err := parseDate("publishDate", req.PublishDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	in := lifecycle.CreateBookInput{Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if !published.IsZero() {
		in.PublishDate = &published
	}
	book, err := h.svc.CreateBook(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/books/"+book.BookUid)
	c.JSON(http.StatusCreated, bookJSON(book))
}

func (h *Handler) getBook(c *gin.Context) {
	book, err := h.svc.GetBook(c.Request.Context(), c.Param("bookUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

func (h *Handler) updateBook(c *gin.Context) {
	var req bookPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := lifecycle.UpdateBookInput{Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if req.PublishDate != nil {
		published, err := parseDate("publishDate", *req.PublishDate)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		// An empty string clears the date.
		in.PublishDate = &published
	}

	book, err := h.svc.UpdateBook(c.Request.Context(), c.Param("bookUid"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

func (h *Handler) deleteBook(c *gin.Context) {
	if err := h.svc.DeleteBook(c.Request.Context(), c.Param("bookUid")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
