package sqlstore

import (
	"context"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"gorm.io/gorm"
)

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)

// NotificationRepository persists the notification dispatch log
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, record *models.NotificationRecord) error {
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	row := notificationRow{
		ID:          record.ID,
		RequestID:   record.RequestID,
		OwnerRef:    record.OwnerRef,
		TopupStatus: string(record.Status),
		Content:     record.Content,
		Gateway:     record.Gateway,
		State:       record.State,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	return repositories.NewStorageError("insert notification", r.db.WithContext(ctx).Create(&row).Error)
}

func (r *NotificationRepository) UpdateState(ctx context.Context, id string, state string, messageID string, errMsg string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"state":      state,
		"message_id": messageID,
		"error":      errMsg,
		"updated_at": now,
	}
	if state == models.NotificationSent {
		updates["sent_at"] = now
	}
	err := r.db.WithContext(ctx).Model(&notificationRow{}).Where("id = ?", id).Updates(updates).Error
	return repositories.NewStorageError("update notification", err)
}

func (r *NotificationRepository) FindByRequestID(ctx context.Context, requestID string) ([]*models.NotificationRecord, error) {
	var rows []notificationRow
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, repositories.NewStorageError("find notifications", err)
	}
	records := make([]*models.NotificationRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}
