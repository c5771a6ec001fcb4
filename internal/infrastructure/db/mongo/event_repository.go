package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

const authEventsCollection = "auth_events"

// EventRepository implements ports.AuthEventRepository using MongoDB.
type EventRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database, timeout time.Duration) *EventRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &EventRepository{coll: db.Collection(authEventsCollection), timeout: timeout}
}

// InsertEvent persists an event to the auth_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := bson.M{
		"type":        string(event.Type),
		"method":      event.Method,
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.AccountID != "" {
		doc["account_id"] = event.AccountID
	}
	if event.Username != "" {
		doc["username"] = event.Username
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	if event.IP != "" {
		doc["ip"] = event.IP
	}
	if event.UserAgent != "" {
		doc["user_agent"] = event.UserAgent
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return translateError("insert auth event", err)
}

// EnsureIndexes creates lookup indexes on the audit collection.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
