package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a message on a request's thread. Comments are append-only:
// once persisted they are never edited or deleted. Internal comments are
// visible to staff and admin only.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Request    primitive.ObjectID `bson:"request" json:"request"`
	Author     primitive.ObjectID `bson:"author" json:"author"`
	Content    string             `bson:"content" json:"content"`
	IsInternal bool               `bson:"isInternal" json:"isInternal"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
