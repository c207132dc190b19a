package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"go.uber.org/zap"
)

// RegisterInput describes a top-up request submitted to the provider by the originator.
type RegisterInput struct {
	RequestID      string `json:"request_id" binding:"required"`
	OwnerRef       string `json:"owner_ref"`
	Telco          string `json:"telco"`
	Denomination   int64  `json:"denomination"`
	ExpectedAmount int64  `json:"expected_amount"`
}

// RequestService registers pending requests so provider callbacks can be matched.
type RequestService struct {
	repo repositories.TopupRequestRepository
	log  *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(repo repositories.TopupRequestRepository, log *zap.Logger) *RequestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RequestService{repo: repo, log: log.Named("request.service")}
}

// Register stores a new pending request. Expected amount defaults to the denomination.
func (s *RequestService) Register(ctx context.Context, in RegisterInput) (*models.TopupRequest, error) {
	req := &models.TopupRequest{
		RequestID:      strings.TrimSpace(in.RequestID),
		OwnerRef:       strings.TrimSpace(in.OwnerRef),
		Telco:          strings.ToUpper(strings.TrimSpace(in.Telco)),
		Denomination:   in.Denomination,
		ExpectedAmount: in.ExpectedAmount,
		Status:         models.StatusPending,
	}
	if req.RequestID == "" {
		return nil, validationErrorf("request_id is required")
	}
	if req.Denomination < 0 || req.ExpectedAmount < 0 {
		return nil, validationErrorf("amounts must not be negative")
	}
	if req.ExpectedAmount == 0 {
		req.ExpectedAmount = req.Denomination
	}

	err := s.repo.Create(ctx, req)
	if errors.Is(err, repositories.ErrDuplicateRequest) {
		return nil, fmt.Errorf("%w: %s", ErrConflict, req.RequestID)
	}
	if err != nil {
		s.log.Error("failed to register request", zap.String("request_id", req.RequestID), zap.Error(err))
		return nil, err
	}
	s.log.Info("request registered",
		zap.String("request_id", req.RequestID),
		zap.String("telco", req.Telco),
		zap.Int64("expected_amount", req.ExpectedAmount),
	)
	return req, nil
}

// Get returns the full stored request
func (s *RequestService) Get(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, validationErrorf("request_id is required")
	}
	req, err := s.repo.FindByRequestID(ctx, requestID)
	if errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return req, err
}
