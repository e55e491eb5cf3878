package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"townreq-be/middlewares"
	"townreq-be/models"
	"townreq-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func principalOrAbort(c *gin.Context) (models.Principal, bool) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return p, ok
}

func requestIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateRequest files a new service request for the authenticated principal
func CreateRequest(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var input struct {
		Title       string   `json:"title" binding:"required,max=200"`
		Description string   `json:"description" binding:"required,max=2000"`
		Category    string   `json:"category" binding:"required"`
		Priority    string   `json:"priority,omitempty"`
		Address     string   `json:"address,omitempty" binding:"omitempty,max=200"`
		Latitude    *float64 `json:"latitude,omitempty"`
		Longitude   *float64 `json:"longitude,omitempty"`
		IsAnonymous bool     `json:"isAnonymous,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	req, err := requestService.Create(ctx, p, services.CreateRequestInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    models.RequestCategory(input.Category),
		Priority:    models.RequestPriority(input.Priority),
		Address:     input.Address,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		IsAnonymous: input.IsAnonymous,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListRequests runs the filtered, paginated listing
func ListRequests(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	page, err := requestService.List(ctx, p, services.ListQuery{
		Status:       c.Query("status"),
		Category:     c.Query("category"),
		Priority:     c.Query("priority"),
		Search:       c.Query("search"),
		Mine:         c.Query("mine") == "true",
		AssignedToMe: c.Query("assigned_to_me") == "true",
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetRequest retrieves a single request
func GetRequest(c *gin.Context) {
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

	req, err := requestService.Get(ctx, p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// TransitionRequest moves a request through the lifecycle
func TransitionRequest(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := opContext()
	defer cancel()

	req, err := requestService.Transition(ctx, p, id, models.RequestStatus(input.Status), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// AssignRequest sets the assignee of a request
func AssignRequest(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Assignee string `json:"assignee" binding:"required"`
		// The assignee the caller last saw; omitted means unassigned.
		CurrentAssignee string `json:"currentAssignee,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assigneeID, err := primitive.ObjectIDFromHex(input.Assignee)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID"})
		return
	}
	var expected *primitive.ObjectID
	if input.CurrentAssignee != "" {
		cur, err := primitive.ObjectIDFromHex(input.CurrentAssignee)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid current assignee ID"})
			return
		}
		expected = &cur
	}

	ctx, cancel := opContext()
	defer cancel()

	req, err := requestService.Assign(ctx, p, id, assigneeID, expected)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// ListRequestAudit returns the lifecycle audit trail of a request
func ListRequestAudit(c *gin.Context) {
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

	events, err := requestService.AuditTrail(ctx, p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
