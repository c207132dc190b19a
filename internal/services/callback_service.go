package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/topup-callback/internal/metrics"
	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"go.uber.org/zap"
)

// CallbackInput is a provider callback as received, before validation.
type CallbackInput struct {
	RequestID      string
	Status         string
	Message        string
	ReceivedAmount int64
	PartnerID      string
	Sign           string
	Code           string
	Serial         string
}

// CallbackResult describes the stored request after a callback or lookup.
type CallbackResult struct {
	RequestID      string             `json:"request_id"`
	Status         models.TopupStatus `json:"status"`
	DisplayLabel   string             `json:"display_label"`
	Message        string             `json:"message"`
	ReceivedAmount int64              `json:"received_amount"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// CallbackService verifies, normalizes and applies provider callbacks.
type CallbackService struct {
	verifier   *SignatureVerifier
	normalizer *StatusNormalizer
	repo       repositories.TopupRequestRepository
	notifier   Notifier
	metrics    *metrics.CallbackMetrics
	log        *zap.Logger
	now        func() time.Time
}

// NewCallbackService creates a new CallbackService
func NewCallbackService(
	verifier *SignatureVerifier,
	normalizer *StatusNormalizer,
	repo repositories.TopupRequestRepository,
	notifier Notifier,
	m *metrics.CallbackMetrics,
	log *zap.Logger,
) *CallbackService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CallbackService{
		verifier:   verifier,
		normalizer: normalizer,
		repo:       repo,
		notifier:   notifier,
		metrics:    m,
		log:        log.Named("callback.service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// HandleCallback applies one provider callback. Validation and authentication failures are
// returned before the store is touched.
func (s *CallbackService) HandleCallback(ctx context.Context, in CallbackInput) (*CallbackResult, error) {
	requestID := strings.TrimSpace(in.RequestID)
	if requestID == "" {
		return nil, s.reject("invalid", "", validationErrorf("request_id is required"))
	}
	if strings.TrimSpace(in.Status) == "" {
		return nil, s.reject("invalid", requestID, validationErrorf("status is required"))
	}

	err := s.verifier.Check(requestID, SignatureFields{
		PartnerID: in.PartnerID,
		Code:      in.Code,
		Serial:    in.Serial,
		Sign:      in.Sign,
	})
	if err != nil {
		outcome := "invalid"
		if errors.Is(err, ErrUnauthorized) {
			outcome = "unauthorized"
		}
		return nil, s.reject(outcome, requestID, err)
	}

	norm := s.normalizer.Normalize(in.Status, strings.TrimSpace(in.Message))
	if !norm.Recognized {
		s.log.Warn("unrecognized provider status",
			zap.String("request_id", requestID),
			zap.String("raw_status", in.Status),
			zap.String("fallback", string(norm.Status)),
		)
	}

	amount := in.ReceivedAmount
	if amount < 0 {
		amount = 0
	}
	res, err := s.repo.UpsertStatus(ctx, models.StatusUpdate{
		RequestID:      requestID,
		Status:         norm.Status,
		RawStatus:      strings.ToLower(strings.TrimSpace(in.Status)),
		Message:        norm.Message,
		ReceivedAmount: amount,
		Now:            s.now(),
	})
	if errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, s.reject("not_found", requestID, fmt.Errorf("%w: %s", ErrNotFound, requestID))
	}
	if err != nil {
		s.metrics.IncCallback("error")
		s.log.Error("failed to apply callback", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	result := s.describe(&res.Record)
	if res.Created {
		s.log.Warn("created record for unseen request id", zap.String("request_id", requestID))
	}
	if res.Previous.IsTerminal() && norm.Status != res.Record.Status {
		s.log.Info("late callback for finished request",
			zap.String("request_id", requestID),
			zap.String("stored_status", string(res.Record.Status)),
			zap.String("callback_status", string(norm.Status)),
		)
	}

	if !res.StatusChanged() {
		s.metrics.IncCallback("noop")
		return result, nil
	}

	s.metrics.IncCallback("applied")
	s.metrics.IncTransition(string(res.Previous), string(res.Record.Status))
	s.log.Info("topup status changed",
		zap.String("request_id", requestID),
		zap.String("from", string(res.Previous)),
		zap.String("to", string(res.Record.Status)),
	)
	s.notifier.Notify(models.Notification{
		OwnerRef:       res.Record.OwnerRef,
		Telco:          res.Record.Telco,
		ExpectedAmount: res.Record.ExpectedAmount,
		RequestID:      res.Record.RequestID,
		Status:         res.Record.Status,
		DisplayLabel:   result.DisplayLabel,
		DisplayMessage: res.Record.Message,
		ReceivedAmount: res.Record.ReceivedAmount,
	})
	return result, nil
}

// Lookup returns the current state of a request without modifying it.
func (s *CallbackService) Lookup(ctx context.Context, requestID string) (*CallbackResult, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, validationErrorf("request_id is required")
	}
	rec, err := s.repo.FindByRequestID(ctx, requestID)
	if errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if err != nil {
		s.log.Error("failed to look up request", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	return s.describe(rec), nil
}

func (s *CallbackService) describe(rec *models.TopupRequest) *CallbackResult {
	return &CallbackResult{
		RequestID:      rec.RequestID,
		Status:         rec.Status,
		DisplayLabel:   s.normalizer.Label(rec.RawStatus, rec.Status),
		Message:        rec.Message,
		ReceivedAmount: rec.ReceivedAmount,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func (s *CallbackService) reject(outcome, requestID string, err error) error {
	s.metrics.IncCallback(outcome)
	s.log.Warn("callback rejected",
		zap.String("request_id", requestID),
		zap.String("outcome", outcome),
		zap.String("reason", err.Error()),
	)
	return err
}
