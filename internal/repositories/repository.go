package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/topup-callback/internal/models"
)

var (
	// ErrRequestNotFound is returned when a request id has never been registered.
	ErrRequestNotFound = errors.New("topup request not found")
	// ErrDuplicateRequest is returned by Create when the request id already exists.
	ErrDuplicateRequest = errors.New("topup request already exists")
)

// StorageError wraps a failure of the backing store. It is never used for a missing record.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err (or anything it wraps) is a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// NewStorageError wraps err for op, returning nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// TopupRequestRepository defines the durable keyed storage of top-up requests.
type TopupRequestRepository interface {
	Create(ctx context.Context, req *models.TopupRequest) error
	FindByRequestID(ctx context.Context, requestID string) (*models.TopupRequest, error)
	Exists(ctx context.Context, requestID string) (bool, error)
	// UpsertStatus atomically applies a status update to a single request. Concurrent calls
	// for the same id serialize; calls for different ids do not block each other.
	UpsertStatus(ctx context.Context, upd models.StatusUpdate) (*models.TransitionResult, error)
	Ping(ctx context.Context) error
}

// NotificationRepository defines the interface for the notification dispatch log
type NotificationRepository interface {
	Create(ctx context.Context, record *models.NotificationRecord) error
	UpdateState(ctx context.Context, id string, state string, messageID string, errMsg string) error
	FindByRequestID(ctx context.Context, requestID string) ([]*models.NotificationRecord, error)
}
