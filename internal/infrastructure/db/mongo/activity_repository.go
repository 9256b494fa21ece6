package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

const activityCollection = "activity_logs"

// MongoActivityRepository is the append-only audit sink. Rows are never
// updated or read back by this service.
type MongoActivityRepository struct {
	coll *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{coll: db.Collection(activityCollection)}
}

type mongoActivity struct {
	ID         string `bson:"_id"`
	Type       string `bson:"type"`
	UserID     string `bson:"user_id,omitempty"`
	Email      string `bson:"email,omitempty"`
	Reason     string `bson:"reason,omitempty"`
	IP         string `bson:"ip_address,omitempty"`
	UserAgent  string `bson:"user_agent,omitempty"`
	OccurredAt int64  `bson:"occurred_at"`
}

func (r *MongoActivityRepository) Insert(ctx context.Context, event domain.ActivityEvent) error {
	doc := mongoActivity{
		ID:         event.ID,
		Type:       string(event.Type),
		UserID:     event.UserID,
		Email:      event.Email,
		Reason:     event.Reason,
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		OccurredAt: event.OccurredAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
