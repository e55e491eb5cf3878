package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"townreq-be/models"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes lifecycle events as JSON on a Redis pub/sub
// channel for delivery to UIs. Fire-and-forget: publish failures are
// logged and never surface to the caller, so they cannot roll back the
// state change that produced the event.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

type event struct {
	Type      string    `json:"type"`
	RequestID string    `json:"requestId"`
	Subject   string    `json:"subject,omitempty"`
	At        time.Time `json:"at"`
}

func (n *RedisNotifier) publish(ev event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", ev.Type, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		log.Printf("Failed to publish %s event: %v", ev.Type, err)
	}
}

func (n *RedisNotifier) StatusChanged(r *models.Request) {
	n.publish(event{
		Type:      "status_changed",
		RequestID: r.ID.Hex(),
		Subject:   string(r.Status),
		At:        time.Now(),
	})
}

func (n *RedisNotifier) CommentPosted(c *models.Comment) {
	ev := event{
		Type:      "comment_posted",
		RequestID: c.Request.Hex(),
		At:        time.Now(),
	}
	// Internal comments are announced without identifying themselves so a
	// citizen-facing listener learns nothing from the event stream.
	if !c.IsInternal {
		ev.Subject = c.ID.Hex()
	}
	n.publish(ev)
}

func (n *RedisNotifier) ScanResolved(a *models.Attachment) {
	n.publish(event{
		Type:      "scan_resolved",
		RequestID: a.Request.Hex(),
		Subject:   string(a.ScanState),
		At:        time.Now(),
	})
}
