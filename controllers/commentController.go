package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostComment appends a comment to a request's thread
func PostComment(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Content    string `json:"content" binding:"required"`
		IsInternal bool   `json:"isInternal,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	comment, err := commentService.Post(ctx, p, id, input.Content, input.IsInternal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments returns the thread as visible to the caller
func ListComments(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	comments, err := commentService.ListVisible(ctx, p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}
