package services

import (
	"fmt"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/models"
)

type statusEntry struct {
	status      models.TopupStatus
	label       string
	description string
}

// providerStatuses maps raw provider codes (trimmed, lower-cased) to canonical statuses.
var providerStatuses = map[string]statusEntry{
	"1":       {models.StatusSuccess, "Successful", "Card accepted"},
	"success": {models.StatusSuccess, "Successful", "Card accepted"},
	"2":       {models.StatusFailed, "Wrong denomination", "Card value does not match the declared denomination"},
	"3":       {models.StatusFailed, "Failed", "Card rejected by the provider"},
	"failed":  {models.StatusFailed, "Failed", "Card rejected by the provider"},
	"4":       {models.StatusError, "Maintenance", "Provider is under maintenance"},
	"99":      {models.StatusPending, "Pending", "Card is waiting for provider processing"},
	"pending": {models.StatusPending, "Pending", "Card is waiting for provider processing"},
	"100":     {models.StatusError, "Error", "Card submission failed"},
	"error":   {models.StatusError, "Error", "Card submission failed"},
	"expired": {models.StatusFailed, "Expired", "Card has expired"},
}

var statusLabels = map[models.TopupStatus]string{
	models.StatusPending: "Pending",
	models.StatusSuccess: "Successful",
	models.StatusFailed:  "Failed",
	models.StatusError:   "Error",
	models.StatusUnknown: "Unknown",
}

// Normalized is the canonical reading of a raw provider status.
type Normalized struct {
	Status     models.TopupStatus
	Label      string
	Message    string
	Recognized bool
}

// StatusNormalizer translates provider status codes. It performs no I/O.
type StatusNormalizer struct {
	fallback models.TopupStatus
}

// NewStatusNormalizer returns a normalizer that maps unrecognized codes to fallback.
// Only "pending" and "unknown" are accepted; anything else falls back to unknown.
func NewStatusNormalizer(fallback string) *StatusNormalizer {
	f := models.StatusUnknown
	if models.TopupStatus(strings.ToLower(strings.TrimSpace(fallback))) == models.StatusPending {
		f = models.StatusPending
	}
	return &StatusNormalizer{fallback: f}
}

// Normalize maps raw to a canonical status. A non-empty rawMessage is kept verbatim,
// otherwise the code's default description is used. Unrecognized codes keep the raw code
// in the message.
func (n *StatusNormalizer) Normalize(raw, rawMessage string) Normalized {
	key := strings.ToLower(strings.TrimSpace(raw))
	if entry, ok := providerStatuses[key]; ok {
		msg := entry.description
		if rawMessage != "" {
			msg = rawMessage
		}
		return Normalized{Status: entry.status, Label: entry.label, Message: msg, Recognized: true}
	}

	msg := fmt.Sprintf("Unrecognized provider status (code: %s)", strings.TrimSpace(raw))
	if rawMessage != "" {
		msg = fmt.Sprintf("%s (code: %s)", rawMessage, strings.TrimSpace(raw))
	}
	return Normalized{Status: n.fallback, Label: Describe(n.fallback), Message: msg}
}

// Label returns the display label for a stored record, preferring its raw provider code.
func (n *StatusNormalizer) Label(rawStatus string, status models.TopupStatus) string {
	if entry, ok := providerStatuses[strings.ToLower(strings.TrimSpace(rawStatus))]; ok && entry.status == status {
		return entry.label
	}
	return Describe(status)
}

// Describe returns the display label of a canonical status.
func Describe(status models.TopupStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return statusLabels[models.StatusUnknown]
}
