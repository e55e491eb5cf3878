package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScanState enum. An attachment starts pending and moves exactly once to
// clean or infected; a terminal state never re-enters pending.
type ScanState string

const (
	ScanPending  ScanState = "pending"
	ScanClean    ScanState = "clean"
	ScanInfected ScanState = "infected"
)

func (s ScanState) Valid() bool {
	return s == ScanPending || s == ScanClean || s == ScanInfected
}

func (s ScanState) Terminal() bool {
	return s == ScanClean || s == ScanInfected
}

// Attachment is a file uploaded against a request. Filename and MimeType
// are recorded as declared by the uploader and never trusted for safety
// decisions; downloads are gated solely on ScanState.
type Attachment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Request     primitive.ObjectID `bson:"request" json:"request"`
	UploadedBy  primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	StorageKey  string             `bson:"storageKey" json:"-"`
	Filename    string             `bson:"filename" json:"filename"`
	MimeType    string             `bson:"mimeType" json:"mimeType"`
	Size        int64              `bson:"size" json:"size"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ScanState   ScanState          `bson:"scanState" json:"scanState"`
	ScanDetail  string             `bson:"scanDetail,omitempty" json:"-"`
	ScanClaimed bool               `bson:"scanClaimed" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
