package models

import (
	"time"
)

// Notification is the payload handed to the notifier when a request changes status.
type Notification struct {
	OwnerRef       string      `json:"owner_ref"`
	Telco          string      `json:"telco"`
	ExpectedAmount int64       `json:"expected_amount"`
	RequestID      string      `json:"request_id"`
	Status         TopupStatus `json:"status"`
	DisplayLabel   string      `json:"display_label"`
	DisplayMessage string      `json:"display_message"`
	ReceivedAmount int64       `json:"received_amount"`
}

// NotificationRecord logs a single dispatch attempt
type NotificationRecord struct {
	ID        string      `bson:"_id" json:"id"`
	RequestID string      `bson:"requestId" json:"request_id"`
	OwnerRef  string      `bson:"ownerRef" json:"owner_ref"`
	Status    TopupStatus `bson:"topupStatus" json:"topup_status"`
	Content   string      `bson:"content" json:"content"`
	Gateway   string      `bson:"gateway" json:"gateway"`           // telegram, webhook, log
	State     string      `bson:"state" json:"state"`               // PENDING, SENT, FAILED
	MessageID string      `bson:"messageId,omitempty" json:"message_id,omitempty"`
	Error     string      `bson:"error,omitempty" json:"error,omitempty"`
	SentAt    time.Time   `bson:"sentAt,omitempty" json:"sent_at,omitempty"`
	CreatedAt time.Time   `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time   `bson:"updatedAt" json:"updated_at"`
}

const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
)
