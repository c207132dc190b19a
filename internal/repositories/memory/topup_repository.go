package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
)

var _ repositories.TopupRequestRepository = (*TopupRepository)(nil)

// TopupRepository keeps requests in process memory. Each record carries its own mutex so
// updates for one id never wait on another id; the map lock is only held for lookups.
type TopupRepository struct {
	mu            sync.Mutex
	records       map[string]*entry
	upsertUnknown bool
}

type entry struct {
	mu  sync.Mutex
	rec models.TopupRequest
}

func NewTopupRepository(upsertUnknown bool) *TopupRepository {
	return &TopupRepository{
		records:       make(map[string]*entry),
		upsertUnknown: upsertUnknown,
	}
}

func (r *TopupRepository) Create(_ context.Context, req *models.TopupRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	if req.Status == "" {
		req.Status = models.StatusPending
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[req.RequestID]; ok {
		return repositories.ErrDuplicateRequest
	}
	r.records[req.RequestID] = &entry{rec: *req}
	return nil
}

func (r *TopupRepository) FindByRequestID(_ context.Context, requestID string) (*models.TopupRequest, error) {
	e := r.lookup(requestID)
	if e == nil {
		return nil, repositories.ErrRequestNotFound
	}
	e.mu.Lock()
	rec := e.rec
	e.mu.Unlock()
	return &rec, nil
}

func (r *TopupRepository) Exists(_ context.Context, requestID string) (bool, error) {
	return r.lookup(requestID) != nil, nil
}

func (r *TopupRepository) Ping(context.Context) error { return nil }

func (r *TopupRepository) UpsertStatus(_ context.Context, upd models.StatusUpdate) (*models.TransitionResult, error) {
	r.mu.Lock()
	e, ok := r.records[upd.RequestID]
	created := false
	if !ok {
		if !r.upsertUnknown {
			r.mu.Unlock()
			return nil, repositories.ErrRequestNotFound
		}
		// locked before it is published so readers never observe the placeholder
		e = &entry{rec: models.NewPendingRequest(upd.RequestID, upd.Now)}
		e.mu.Lock()
		r.records[upd.RequestID] = e
		created = true
	}
	r.mu.Unlock()

	if !created {
		e.mu.Lock()
	}
	defer e.mu.Unlock()
	prev := e.rec.Status
	models.ApplyTransition(&e.rec, upd)
	return &models.TransitionResult{Previous: prev, Record: e.rec, Created: created}, nil
}

// Len returns the number of stored requests.
func (r *TopupRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *TopupRepository) lookup(requestID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[requestID]
}
