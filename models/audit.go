package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditAction enumerates the recorded lifecycle actions.
type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditStatusChanged AuditAction = "status_changed"
	AuditAssigned      AuditAction = "assigned"
)

// AuditEvent is one entry of a request's audit trail: who did what, and
// which status edge it moved. The trail is append-only.
type AuditEvent struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Request    primitive.ObjectID  `bson:"request" json:"request"`
	Actor      primitive.ObjectID  `bson:"actor" json:"actor"`
	Action     AuditAction         `bson:"action" json:"action"`
	FromStatus RequestStatus       `bson:"fromStatus,omitempty" json:"fromStatus,omitempty"`
	ToStatus   RequestStatus       `bson:"toStatus,omitempty" json:"toStatus,omitempty"`
	Assignee   *primitive.ObjectID `bson:"assignee,omitempty" json:"assignee,omitempty"`
	Detail     string              `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}
