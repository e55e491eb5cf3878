package storage

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// GridFSObjects stores uploaded bytes in a GridFS bucket, keyed by the
// generated object key used as the GridFS filename.
type GridFSObjects struct {
	bucket *gridfs.Bucket
}

func NewGridFSObjects(db *mongo.Database) (*GridFSObjects, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &GridFSObjects{bucket: bucket}, nil
}

func (g *GridFSObjects) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := g.bucket.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	_, err := g.bucket.UploadFromStream(key, r)
	return err
}

func (g *GridFSObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := g.bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stream, err := g.bucket.OpenDownloadStreamByName(key)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (g *GridFSObjects) Delete(ctx context.Context, key string) error {
	cursor, err := g.bucket.Find(bson.M{"filename": key})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return err
		}
		if err := g.bucket.Delete(file.ID); err != nil {
			return err
		}
	}
	return cursor.Err()
}
