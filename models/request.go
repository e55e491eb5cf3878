package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestCategory enum
type RequestCategory string

const (
	RoadMaintenance RequestCategory = "road_maintenance"
	StreetLighting  RequestCategory = "street_lighting"
	TrafficSignals  RequestCategory = "traffic_signals"
	ParkMaintenance RequestCategory = "park_maintenance"
	WasteManagement RequestCategory = "waste_management"
	WaterSewer      RequestCategory = "water_sewer"
	NoiseComplaint  RequestCategory = "noise_complaint"
	ParkingIssue    RequestCategory = "parking_issue"
	OtherCategory   RequestCategory = "other"
)

var validCategories = map[RequestCategory]bool{
	RoadMaintenance: true, StreetLighting: true, TrafficSignals: true,
	ParkMaintenance: true, WasteManagement: true, WaterSewer: true,
	NoiseComplaint: true, ParkingIssue: true, OtherCategory: true,
}

func (c RequestCategory) Valid() bool {
	return validCategories[c]
}

// RequestPriority enum
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

var validPriorities = map[RequestPriority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityUrgent: true,
}

func (p RequestPriority) Valid() bool {
	return validPriorities[p]
}

// RequestStatus enum
type RequestStatus string

const (
	StatusSubmitted   RequestStatus = "submitted"
	StatusUnderReview RequestStatus = "under_review"
	StatusAssigned    RequestStatus = "assigned"
	StatusInProgress  RequestStatus = "in_progress"
	StatusCompleted   RequestStatus = "completed"
	StatusRejected    RequestStatus = "rejected"
	StatusClosed      RequestStatus = "closed"
)

var validStatuses = map[RequestStatus]bool{
	StatusSubmitted: true, StatusUnderReview: true, StatusAssigned: true,
	StatusInProgress: true, StatusCompleted: true, StatusRejected: true,
	StatusClosed: true,
}

func (s RequestStatus) Valid() bool {
	return validStatuses[s]
}

// Terminal reports whether s ends the lifecycle. The only way out of a
// terminal state is the administrative close.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusClosed
}

// forwardEdges is the happy path of the lifecycle. Rejection and the
// administrative close are handled separately because they are reachable
// from every non-terminal state.
var forwardEdges = map[RequestStatus]RequestStatus{
	StatusSubmitted:   StatusUnderReview,
	StatusUnderReview: StatusAssigned,
	StatusAssigned:    StatusInProgress,
	StatusInProgress:  StatusCompleted,
}

// AllowsTransition reports whether the lifecycle table permits from -> to
// for the given role. The assignee restriction on assigned -> in_progress
// is enforced by the caller, which knows who the assignee is.
// The administrative close is the one way out of a terminal state.
func AllowsTransition(role Role, from, to RequestStatus) bool {
	if from.Terminal() {
		return role == RoleAdmin && to == StatusClosed && from != StatusClosed
	}
	switch to {
	case StatusClosed:
		return role == RoleAdmin
	case StatusRejected:
		return role.IsStaff()
	}
	return role.IsStaff() && forwardEdges[from] == to
}

// AssignableFrom reports whether assignment is a legal operation while the
// request sits in the given status.
func AssignableFrom(s RequestStatus) bool {
	return s == StatusUnderReview || s == StatusAssigned || s == StatusInProgress
}

// Request represents a municipal service request filed by a citizen
type Request struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Category    RequestCategory     `bson:"category" json:"category"`
	Priority    RequestPriority     `bson:"priority" json:"priority"`
	Status      RequestStatus       `bson:"status" json:"status"`
	Address     string              `bson:"address,omitempty" json:"address,omitempty"`
	Latitude    *float64            `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   *float64            `bson:"longitude,omitempty" json:"longitude,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	Assignee    *primitive.ObjectID `bson:"assignee,omitempty" json:"assignee,omitempty"`
	IsAnonymous bool                `bson:"isAnonymous" json:"isAnonymous"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// EnsureRequestIndexes creates the indexes backing filtered listing
func EnsureRequestIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes, options.CreateIndexes())
	return err
}
