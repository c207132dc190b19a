package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ repositories.TopupRequestRepository = (*TopupRepository)(nil)

// Open opens (and migrates) a SQLite database. SQLite allows a single writer, so the pool is
// capped at one connection; this also keeps ":memory:" databases shared across calls.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&topupRequestRow{}, &notificationRow{}); err != nil {
		return nil, err
	}
	return db, nil
}

// TopupRepository stores top-up requests in a SQL table through gorm.
type TopupRepository struct {
	db            *gorm.DB
	upsertUnknown bool
}

func NewTopupRepository(db *gorm.DB, upsertUnknown bool) *TopupRepository {
	return &TopupRepository{db: db, upsertUnknown: upsertUnknown}
}

func (r *TopupRepository) Create(ctx context.Context, req *models.TopupRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	err := r.db.WithContext(ctx).Create(rowFromModel(*req)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repositories.ErrDuplicateRequest
	}
	return repositories.NewStorageError("insert topup request", err)
}

func (r *TopupRepository) FindByRequestID(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	var row topupRequestRow
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrRequestNotFound
	}
	if err != nil {
		return nil, repositories.NewStorageError("find topup request", err)
	}
	rec := row.toModel()
	return &rec, nil
}

func (r *TopupRepository) Exists(ctx context.Context, requestID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&topupRequestRow{}).Where("request_id = ?", requestID).Limit(1).Count(&n).Error
	if err != nil {
		return false, repositories.NewStorageError("count topup request", err)
	}
	return n > 0, nil
}

func (r *TopupRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return repositories.NewStorageError("ping", err)
	}
	return repositories.NewStorageError("ping", sqlDB.PingContext(ctx))
}

// UpsertStatus reads the row under FOR UPDATE (a no-op on SQLite, where the single connection
// already serializes writers) and writes the transitioned record in the same transaction.
func (r *TopupRepository) UpsertStatus(ctx context.Context, upd models.StatusUpdate) (*models.TransitionResult, error) {
	res, err := r.upsert(ctx, upd)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost an insert race in upsert-unknown mode; the row exists now
		res, err = r.upsert(ctx, upd)
	}
	if err == nil || errors.Is(err, repositories.ErrRequestNotFound) {
		return res, err
	}
	return nil, repositories.NewStorageError("upsert topup status", err)
}

func (r *TopupRepository) upsert(ctx context.Context, upd models.StatusUpdate) (*models.TransitionResult, error) {
	var result *models.TransitionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row topupRequestRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", upd.RequestID).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if !r.upsertUnknown {
				return repositories.ErrRequestNotFound
			}
			rec := models.NewPendingRequest(upd.RequestID, upd.Now)
			models.ApplyTransition(&rec, upd)
			if err := tx.Create(rowFromModel(rec)).Error; err != nil {
				return err
			}
			result = &models.TransitionResult{Previous: models.StatusPending, Record: rec, Created: true}
			return nil
		}
		if err != nil {
			return err
		}

		rec := row.toModel()
		prev := rec.Status
		if models.ApplyTransition(&rec, upd) {
			err := tx.Model(&topupRequestRow{}).
				Where("request_id = ?", rec.RequestID).
				Updates(map[string]any{
					"status":          string(rec.Status),
					"raw_status":      rec.RawStatus,
					"received_amount": rec.ReceivedAmount,
					"message":         rec.Message,
					"updated_at":      rec.UpdatedAt,
				}).Error
			if err != nil {
				return err
			}
		}
		result = &models.TransitionResult{Previous: prev, Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
