package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
)

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)

// NotificationRepository keeps the dispatch log in memory
type NotificationRepository struct {
	mu      sync.RWMutex
	records map[string]*models.NotificationRecord
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{records: make(map[string]*models.NotificationRecord)}
}

func (r *NotificationRepository) Create(_ context.Context, record *models.NotificationRecord) error {
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *NotificationRepository) UpdateState(_ context.Context, id string, state string, messageID string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	rec.State = state
	rec.MessageID = messageID
	rec.Error = errMsg
	rec.UpdatedAt = now
	if state == models.NotificationSent {
		rec.SentAt = now
	}
	return nil
}

func (r *NotificationRepository) FindByRequestID(_ context.Context, requestID string) ([]*models.NotificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.NotificationRecord
	for _, rec := range r.records {
		if rec.RequestID == requestID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
