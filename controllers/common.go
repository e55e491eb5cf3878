package controllers

import (
	"errors"
	"net/http"

	"townreq-be/services"

	"github.com/gin-gonic/gin"
)

var (
	requestService    *services.RequestService
	commentService    *services.CommentService
	attachmentService *services.AttachmentService
)

// Init wires the controllers to the engine services. Called once from main.
func Init(rs *services.RequestService, cs *services.CommentService, as *services.AttachmentService) {
	requestService = rs
	commentService = cs
	attachmentService = as
}

var statusByKind = map[services.ErrorKind]int{
	services.KindInvalidFilter:       http.StatusBadRequest,
	services.KindInvalidPagination:   http.StatusBadRequest,
	services.KindInvalidArgument:     http.StatusBadRequest,
	services.KindEmptyContent:        http.StatusBadRequest,
	services.KindContentTooLong:      http.StatusBadRequest,
	services.KindFileTooLarge:        http.StatusBadRequest,
	services.KindForbidden:           http.StatusForbidden,
	services.KindQuarantined:         http.StatusForbidden,
	services.KindNotFound:            http.StatusNotFound,
	services.KindIllegalTransition:   http.StatusConflict,
	services.KindPrematureAssignment: http.StatusConflict,
	services.KindNotReady:            http.StatusConflict,
	services.KindUnavailable:         http.StatusServiceUnavailable,
}

// respondError maps an engine error kind to an HTTP status and renders the
// structured detail the engine attached.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	body := gin.H{"error": err.Error(), "kind": string(kind)}
	var se *services.Error
	if errors.As(err, &se) {
		if se.Field != "" {
			body["field"] = se.Field
		}
		if se.Current != "" {
			body["current_status"] = se.Current
		}
		if se.Attempted != "" {
			body["attempted_status"] = se.Attempted
		}
		if se.Limit > 0 {
			body["limit"] = se.Limit
		}
	}
	c.JSON(status, body)
}
