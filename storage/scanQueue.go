package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RedisScanQueue carries attachment ids to the scan workers over a Redis
// list. BRPOP gives each id to exactly one worker, across processes.
type RedisScanQueue struct {
	client *redis.Client
	key    string
}

func NewRedisScanQueue(client *redis.Client, key string) *RedisScanQueue {
	return &RedisScanQueue{client: client, key: key}
}

func (q *RedisScanQueue) Enqueue(ctx context.Context, id primitive.ObjectID) error {
	return q.client.LPush(ctx, q.key, id.Hex()).Err()
}

func (q *RedisScanQueue) Dequeue(ctx context.Context) (primitive.ObjectID, error) {
	for {
		// A finite BRPOP timeout keeps the loop responsive to ctx.
		res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if err == redis.Nil {
			if ctx.Err() != nil {
				return primitive.NilObjectID, ctx.Err()
			}
			continue
		}
		if err != nil {
			return primitive.NilObjectID, err
		}
		// BRPOP returns [key, value].
		return primitive.ObjectIDFromHex(res[1])
	}
}

// ChanScanQueue is an in-process queue for tests and single-node setups.
type ChanScanQueue struct {
	ch chan primitive.ObjectID
}

func NewChanScanQueue(capacity int) *ChanScanQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &ChanScanQueue{ch: make(chan primitive.ObjectID, capacity)}
}

func (q *ChanScanQueue) Enqueue(ctx context.Context, id primitive.ObjectID) error {
	select {
	case q.ch <- id:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChanScanQueue) Dequeue(ctx context.Context) (primitive.ObjectID, error) {
	select {
	case id := <-q.ch:
		return id, nil
	case <-ctx.Done():
		return primitive.NilObjectID, ctx.Err()
	}
}
