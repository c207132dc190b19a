package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Compile-time check to ensure TopupRepository implements the interface
var _ repositories.TopupRequestRepository = (*TopupRepository)(nil)

// maxUpsertAttempts bounds the retries when a document moves between the conditional steps.
const maxUpsertAttempts = 4

var errStateMoved = errors.New("topup request changed concurrently")

// TopupRepository stores top-up requests in the "topup_requests" collection, keyed by request id.
type TopupRepository struct {
	collection    *mongo.Collection
	upsertUnknown bool
}

// NewTopupRepository creates a new TopupRepository
func NewTopupRepository(db *mongo.Database, upsertUnknown bool) *TopupRepository {
	return &TopupRepository{
		collection:    db.Collection("topup_requests"),
		upsertUnknown: upsertUnknown,
	}
}

// Create inserts a new pending request
func (r *TopupRepository) Create(ctx context.Context, req *models.TopupRequest) error {
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = req.CreatedAt
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	_, err := r.collection.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrDuplicateRequest
	}
	return repositories.NewStorageError("insert topup request", err)
}

// FindByRequestID finds a request by its id
func (r *TopupRepository) FindByRequestID(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	var req models.TopupRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrRequestNotFound
	}
	if err != nil {
		return nil, repositories.NewStorageError("find topup request", err)
	}
	return &req, nil
}

// Exists reports whether a request id has been registered
func (r *TopupRepository) Exists(ctx context.Context, requestID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": requestID}, options.Count().SetLimit(1))
	if err != nil {
		return false, repositories.NewStorageError("count topup request", err)
	}
	return n > 0, nil
}

// Ping checks the connection to the primary
func (r *TopupRepository) Ping(ctx context.Context) error {
	return repositories.NewStorageError("ping", r.collection.Database().Client().Ping(ctx, readpref.Primary()))
}

// UpsertStatus applies upd with single-document conditional updates. Each step either
// writes atomically or proves that the step does not apply; a document that moves between
// steps is retried from the top.
func (r *TopupRepository) UpsertStatus(ctx context.Context, upd models.StatusUpdate) (*models.TransitionResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		res, err := r.tryUpsert(ctx, upd)
		if errors.Is(err, errStateMoved) {
			lastErr = err
			continue
		}
		return res, err
	}
	return nil, repositories.NewStorageError("upsert topup status", lastErr)
}

func (r *TopupRepository) tryUpsert(ctx context.Context, upd models.StatusUpdate) (*models.TransitionResult, error) {
	// Live (non-terminal) record that the update would modify.
	differs := bson.A{
		bson.M{"status": bson.M{"$ne": upd.Status}},
		bson.M{"rawStatus": bson.M{"$ne": upd.RawStatus}},
		bson.M{"message": bson.M{"$ne": upd.Message}},
	}
	set := bson.M{
		"status":    upd.Status,
		"rawStatus": upd.RawStatus,
		"message":   upd.Message,
		"updatedAt": upd.Now,
	}
	if upd.Status == models.StatusSuccess {
		differs = append(differs, bson.M{"receivedAmount": bson.M{"$ne": upd.ReceivedAmount}})
		set["receivedAmount"] = upd.ReceivedAmount
	}
	liveFilter := bson.M{
		"_id":    upd.RequestID,
		"status": bson.M{"$nin": terminalStatuses()},
		"$or":    differs,
	}
	if res, ok, err := r.findAndApply(ctx, liveFilter, set, upd); ok || err != nil {
		return res, err
	}

	// Terminal record: only the message may still change.
	terminalFilter := bson.M{
		"_id":     upd.RequestID,
		"status":  bson.M{"$in": terminalStatuses()},
		"message": bson.M{"$ne": upd.Message},
	}
	terminalSet := bson.M{"message": upd.Message, "updatedAt": upd.Now}
	if res, ok, err := r.findAndApply(ctx, terminalFilter, terminalSet, upd); ok || err != nil {
		return res, err
	}

	// Either a no-op replay or the record does not exist.
	current, err := r.FindByRequestID(ctx, upd.RequestID)
	if err == nil {
		probe := *current
		if models.ApplyTransition(&probe, upd) {
			return nil, errStateMoved
		}
		return &models.TransitionResult{Previous: current.Status, Record: *current}, nil
	}
	if !errors.Is(err, repositories.ErrRequestNotFound) || !r.upsertUnknown {
		return nil, err
	}

	rec := models.NewPendingRequest(upd.RequestID, upd.Now)
	models.ApplyTransition(&rec, upd)
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errStateMoved
		}
		return nil, repositories.NewStorageError("insert unknown topup request", err)
	}
	return &models.TransitionResult{Previous: models.StatusPending, Record: rec, Created: true}, nil
}

func (r *TopupRepository) findAndApply(ctx context.Context, filter, set bson.M, upd models.StatusUpdate) (*models.TransitionResult, bool, error) {
	var before models.TopupRequest
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, repositories.NewStorageError("update topup status", err)
	}
	after := before
	models.ApplyTransition(&after, upd)
	return &models.TransitionResult{Previous: before.Status, Record: after}, true, nil
}

func terminalStatuses() bson.A {
	out := bson.A{}
	for _, s := range models.TerminalStatuses() {
		out = append(out, s)
	}
	return out
}
