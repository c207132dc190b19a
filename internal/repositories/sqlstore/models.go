package sqlstore

import (
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
)

type topupRequestRow struct {
	RequestID      string    `gorm:"column:request_id;primaryKey;size:128"`
	OwnerRef       string    `gorm:"column:owner_ref;size:128"`
	Telco          string    `gorm:"column:telco;size:32"`
	Denomination   int64     `gorm:"column:denomination"`
	ExpectedAmount int64     `gorm:"column:expected_amount"`
	Status         string    `gorm:"column:status;size:16;not null;index"`
	RawStatus      string    `gorm:"column:raw_status;size:32"`
	ReceivedAmount int64     `gorm:"column:received_amount;not null;default:0"`
	Message        string    `gorm:"column:message;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (topupRequestRow) TableName() string { return "topup_requests" }

func (r topupRequestRow) toModel() models.TopupRequest {
	return models.TopupRequest{
		RequestID:      r.RequestID,
		OwnerRef:       r.OwnerRef,
		Telco:          r.Telco,
		Denomination:   r.Denomination,
		ExpectedAmount: r.ExpectedAmount,
		Status:         models.TopupStatus(r.Status),
		RawStatus:      r.RawStatus,
		ReceivedAmount: r.ReceivedAmount,
		Message:        r.Message,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func rowFromModel(m models.TopupRequest) *topupRequestRow {
	return &topupRequestRow{
		RequestID:      m.RequestID,
		OwnerRef:       m.OwnerRef,
		Telco:          m.Telco,
		Denomination:   m.Denomination,
		ExpectedAmount: m.ExpectedAmount,
		Status:         string(m.Status),
		RawStatus:      m.RawStatus,
		ReceivedAmount: m.ReceivedAmount,
		Message:        m.Message,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type notificationRow struct {
	ID          string     `gorm:"column:id;primaryKey;size:36"`
	RequestID   string     `gorm:"column:request_id;size:128;index"`
	OwnerRef    string     `gorm:"column:owner_ref;size:128"`
	TopupStatus string     `gorm:"column:topup_status;size:16"`
	Content     string     `gorm:"column:content;type:text"`
	Gateway     string     `gorm:"column:gateway;size:32"`
	State       string     `gorm:"column:state;size:16;not null"`
	MessageID   string     `gorm:"column:message_id;size:128"`
	Error       string     `gorm:"column:error;type:text"`
	SentAt      *time.Time `gorm:"column:sent_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (notificationRow) TableName() string { return "notifications" }

func (r notificationRow) toModel() *models.NotificationRecord {
	rec := &models.NotificationRecord{
		ID:        r.ID,
		RequestID: r.RequestID,
		OwnerRef:  r.OwnerRef,
		Status:    models.TopupStatus(r.TopupStatus),
		Content:   r.Content,
		Gateway:   r.Gateway,
		State:     r.State,
		MessageID: r.MessageID,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.SentAt != nil {
		rec.SentAt = *r.SentAt
	}
	return rec
}
