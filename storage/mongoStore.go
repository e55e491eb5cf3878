package storage

import (
	"context"
	"time"

	"townreq-be/models"
	"townreq-be/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the MongoDB implementation of services.Store. Conditional
// updates lean on the atomicity of single-document UpdateOne: the filter
// encodes the expected prior state, and a zero match count means a
// concurrent writer got there first.
type MongoStore struct {
	requests    *mongo.Collection
	comments    *mongo.Collection
	attachments *mongo.Collection
	audit       *mongo.Collection
	users       *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		requests:    db.Collection("requests"),
		comments:    db.Collection("comments"),
		attachments: db.Collection("attachments"),
		audit:       db.Collection("audit_events"),
		users:       db.Collection("users"),
	}
}

func (s *MongoStore) InsertRequest(ctx context.Context, r *models.Request) error {
	_, err := s.requests.InsertOne(ctx, r)
	return err
}

func (s *MongoStore) GetRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *MongoStore) ListRequests(ctx context.Context, f services.RequestFilter, p services.Page) ([]models.Request, int64, error) {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.Category != nil {
		filter["category"] = *f.Category
	}
	if f.Priority != nil {
		filter["priority"] = *f.Priority
	}
	if f.CreatedBy != nil {
		filter["createdBy"] = *f.CreatedBy
	}
	if f.Assignee != nil {
		filter["assignee"] = *f.Assignee
	}
	if f.Search != "" {
		quoted := regexQuote(f.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": quoted, "$options": "i"}},
			{"description": bson.M{"$regex": quoted, "$options": "i"}},
		}
	}

	total, err := s.requests.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit))

	cursor, err := s.requests.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Request, 0, p.Limit)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// regexQuote escapes regex metacharacters so free-text search stays a
// plain substring match.
func regexQuote(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(meta); j++ {
			if s[i] == meta[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (s *MongoStore) UpdateRequestStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus) (bool, error) {
	set := bson.M{"status": to, "updatedAt": time.Now()}
	if to == models.StatusCompleted {
		set["completedAt"] = time.Now()
	}
	update := bson.M{"$set": set}
	// Only assigned, in_progress and completed requests carry an assignee.
	if to == models.StatusRejected || to == models.StatusClosed {
		update["$unset"] = bson.M{"assignee": ""}
	}
	res, err := s.requests.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		update,
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) AssignRequest(ctx context.Context, id primitive.ObjectID, fromStatus models.RequestStatus, fromAssignee *primitive.ObjectID, toStatus models.RequestStatus, assignee primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "status": fromStatus}
	if fromAssignee != nil {
		filter["assignee"] = *fromAssignee
	} else {
		// $eq null also matches a missing field.
		filter["assignee"] = nil
	}
	res, err := s.requests.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":    toStatus,
		"assignee":  assignee,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) InsertComment(ctx context.Context, c *models.Comment) error {
	_, err := s.comments.InsertOne(ctx, c)
	return err
}

func (s *MongoStore) ListComments(ctx context.Context, requestID primitive.ObjectID, includeInternal bool) ([]models.Comment, error) {
	filter := bson.M{"request": requestID}
	if !includeInternal {
		filter["isInternal"] = false
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.comments.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *MongoStore) InsertAttachment(ctx context.Context, a *models.Attachment) error {
	_, err := s.attachments.InsertOne(ctx, a)
	return err
}

func (s *MongoStore) GetAttachment(ctx context.Context, id primitive.ObjectID) (*models.Attachment, error) {
	var att models.Attachment
	err := s.attachments.FindOne(ctx, bson.M{"_id": id}).Decode(&att)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (s *MongoStore) ListAttachments(ctx context.Context, requestID primitive.ObjectID) ([]models.Attachment, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.attachments.Find(ctx, bson.M{"request": requestID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var atts []models.Attachment
	if err := cursor.All(ctx, &atts); err != nil {
		return nil, err
	}
	return atts, nil
}

func (s *MongoStore) ClaimScan(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.attachments.UpdateOne(ctx,
		bson.M{"_id": id, "scanState": models.ScanPending, "scanClaimed": false},
		bson.M{"$set": bson.M{"scanClaimed": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) ReleaseScan(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.attachments.UpdateOne(ctx,
		bson.M{"_id": id, "scanState": models.ScanPending, "scanClaimed": true},
		bson.M{"$set": bson.M{"scanClaimed": false}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) ResolveScan(ctx context.Context, id primitive.ObjectID, state models.ScanState, detail string) (bool, error) {
	res, err := s.attachments.UpdateOne(ctx,
		bson.M{"_id": id, "scanState": models.ScanPending, "scanClaimed": true},
		bson.M{"$set": bson.M{
			"scanState":   state,
			"scanDetail":  detail,
			"scanClaimed": false,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) InsertAuditEvent(ctx context.Context, ev *models.AuditEvent) error {
	_, err := s.audit.InsertOne(ctx, ev)
	return err
}

func (s *MongoStore) ListAuditEvents(ctx context.Context, requestID primitive.ObjectID) ([]models.AuditEvent, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.audit.Find(ctx, bson.M{"request": requestID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
