package models

import (
	"strings"
	"time"
)

// TopupStatus is the canonical status of a top-up request, independent of the provider's raw codes.
type TopupStatus string

const (
	StatusPending TopupStatus = "pending"
	StatusSuccess TopupStatus = "success"
	StatusFailed  TopupStatus = "failed"
	StatusError   TopupStatus = "error"
	StatusUnknown TopupStatus = "unknown"
)

// IsTerminal reports whether no further status change is permitted.
func (s TopupStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the canonical statuses.
func (s TopupStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusError, StatusUnknown:
		return true
	default:
		return false
	}
}

// ParseTopupStatus parses a canonical status name (case-insensitive).
func ParseTopupStatus(raw string) (TopupStatus, bool) {
	s := TopupStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// TerminalStatuses lists the sticky statuses.
func TerminalStatuses() []TopupStatus {
	return []TopupStatus{StatusSuccess, StatusFailed, StatusError}
}

// TopupRequest is a card top-up request awaiting (or having received) provider callbacks.
type TopupRequest struct {
	RequestID      string      `bson:"_id" json:"request_id"`
	OwnerRef       string      `bson:"ownerRef" json:"owner_ref"`
	Telco          string      `bson:"telco" json:"telco"`
	Denomination   int64       `bson:"denomination" json:"denomination"`
	ExpectedAmount int64       `bson:"expectedAmount" json:"expected_amount"`
	Status         TopupStatus `bson:"status" json:"status"`
	RawStatus      string      `bson:"rawStatus" json:"raw_status,omitempty"`
	ReceivedAmount int64       `bson:"receivedAmount" json:"received_amount"`
	Message        string      `bson:"message" json:"message"`
	CreatedAt      time.Time   `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updated_at"`
}

// StatusUpdate is a normalized callback ready to be applied to a stored request.
type StatusUpdate struct {
	RequestID      string
	Status         TopupStatus
	RawStatus      string
	Message        string
	ReceivedAmount int64
	Now            time.Time
}

// TransitionResult is returned by the store after an atomic status upsert.
type TransitionResult struct {
	// Previous is the status immediately before the write.
	Previous TopupStatus
	Record   TopupRequest
	// Created is set when the record did not exist and was created in upsert-unknown mode.
	Created bool
}

// StatusChanged reports whether the write moved the request to a different canonical status.
func (r TransitionResult) StatusChanged() bool {
	return r.Previous != r.Record.Status
}

// ApplyTransition applies upd to rec in place and reports whether anything was modified.
//
// Terminal statuses are sticky: once rec is success, failed or error, only the message can
// still change. ReceivedAmount is only ever written by a success update. A write that would
// not change any field leaves UpdatedAt untouched so replays are no-ops.
func ApplyTransition(rec *TopupRequest, upd StatusUpdate) bool {
	changed := false

	if !rec.Status.IsTerminal() {
		if rec.Status != upd.Status || rec.RawStatus != upd.RawStatus {
			rec.Status = upd.Status
			rec.RawStatus = upd.RawStatus
			changed = true
		}
		if upd.Status == StatusSuccess && rec.ReceivedAmount != upd.ReceivedAmount {
			rec.ReceivedAmount = upd.ReceivedAmount
			changed = true
		}
	}

	if rec.Message != upd.Message {
		rec.Message = upd.Message
		changed = true
	}

	if changed {
		rec.UpdatedAt = upd.Now
	}
	return changed
}

// NewPendingRequest builds the record created for an unseen request id in upsert-unknown mode.
func NewPendingRequest(requestID string, now time.Time) TopupRequest {
	return TopupRequest{
		RequestID: requestID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
