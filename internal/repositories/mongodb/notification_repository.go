package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)

// NotificationRepository implements the repositories.NotificationRepository interface
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// Create inserts a dispatch record
func (r *NotificationRepository) Create(ctx context.Context, record *models.NotificationRecord) error {
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	_, err := r.collection.InsertOne(ctx, record)
	return repositories.NewStorageError("insert notification", err)
}

// UpdateState records the outcome of a dispatch attempt
func (r *NotificationRepository) UpdateState(ctx context.Context, id string, state string, messageID string, errMsg string) error {
	now := time.Now().UTC()
	set := bson.M{
		"state":     state,
		"messageId": messageID,
		"error":     errMsg,
		"updatedAt": now,
	}
	if state == models.NotificationSent {
		set["sentAt"] = now
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return repositories.NewStorageError("update notification", err)
}

// FindByRequestID lists dispatch records for a request, newest first
func (r *NotificationRepository) FindByRequestID(ctx context.Context, requestID string) ([]*models.NotificationRecord, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"requestId": requestID}, opts)
	if err != nil {
		return nil, repositories.NewStorageError("find notifications", err)
	}
	defer cursor.Close(ctx)

	records := []*models.NotificationRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, repositories.NewStorageError("decode notifications", err)
	}
	return records, nil
}
