package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/metrics"
	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"github.com/ArowuTest/topup-callback/internal/repositories/memory"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(n models.Notification) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return true
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type failingRepo struct {
	repositories.TopupRequestRepository
}

func (failingRepo) UpsertStatus(context.Context, models.StatusUpdate) (*models.TransitionResult, error) {
	return nil, repositories.NewStorageError("upsert topup status", errors.New("connection reset"))
}

type fixture struct {
	svc      *CallbackService
	repo     *memory.TopupRepository
	notifier *recordingNotifier
	verifier *SignatureVerifier
}

func newFixture(t *testing.T, mode string, upsertUnknown bool) *fixture {
	t.Helper()
	repo := memory.NewTopupRepository(upsertUnknown)
	notifier := &recordingNotifier{}
	verifier := newTestVerifier(mode, nil)
	svc := NewCallbackService(
		verifier,
		NewStatusNormalizer("unknown"),
		repo,
		notifier,
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop(),
	)
	return &fixture{svc: svc, repo: repo, notifier: notifier, verifier: verifier}
}

func (f *fixture) seed(t *testing.T, id string) {
	t.Helper()
	err := f.repo.Create(context.Background(), &models.TopupRequest{
		RequestID:      id,
		OwnerRef:       "12345",
		Telco:          "VIETTEL",
		Denomination:   10000,
		ExpectedAmount: 10000,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (f *fixture) signed(id, status string, amount int64) CallbackInput {
	return CallbackInput{
		RequestID:      id,
		Status:         status,
		ReceivedAmount: amount,
		PartnerID:      testPartnerID,
		Code:           "c",
		Serial:         "s",
		Sign:           f.verifier.Sign("c", "s"),
	}
}

func TestHandleCallbackPendingToSuccess(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.seed(t, "R1")

	res, err := f.svc.HandleCallback(context.Background(), f.signed("R1", "1", 10000))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != models.StatusSuccess || res.ReceivedAmount != 10000 || res.DisplayLabel != "Successful" {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", f.notifier.count())
	}
	n := f.notifier.sent[0]
	if n.OwnerRef != "12345" || n.ExpectedAmount != 10000 || n.Status != models.StatusSuccess {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestHandleCallbackTerminalIsSticky(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.seed(t, "R1")
	ctx := context.Background()

	if _, err := f.svc.HandleCallback(ctx, f.signed("R1", "1", 10000)); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	res, err := f.svc.HandleCallback(ctx, f.signed("R1", "3", 0))
	if err != nil {
		t.Fatalf("late callback: %v", err)
	}
	if res.Status != models.StatusSuccess || res.ReceivedAmount != 10000 {
		t.Fatalf("late callback changed the outcome: %+v", res)
	}
	stored, _ := f.repo.FindByRequestID(ctx, "R1")
	if stored.Status != models.StatusSuccess {
		t.Fatalf("stored status changed to %s", stored.Status)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("late callback must not notify, got %d notifications", f.notifier.count())
	}
}

func TestHandleCallbackUnknownRequest(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)

	_, err := f.svc.HandleCallback(context.Background(), f.signed("ghost", "1", 10000))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.repo.Len() != 0 {
		t.Fatalf("record created for unknown id")
	}
}

func TestHandleCallbackUpsertUnknownMode(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, true)

	res, err := f.svc.HandleCallback(context.Background(), f.signed("ghost", "3", 0))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != models.StatusFailed || f.repo.Len() != 1 {
		t.Fatalf("expected created failed record, got %+v", res)
	}
}

func TestHandleCallbackBadSignature(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.seed(t, "R1")
	in := f.signed("R1", "1", 10000)
	in.Sign = "00000000000000000000000000000000"

	_, err := f.svc.HandleCallback(context.Background(), in)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	stored, _ := f.repo.FindByRequestID(context.Background(), "R1")
	if stored.Status != models.StatusPending || !stored.UpdatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("rejected callback mutated the store: %+v", stored)
	}
	if f.notifier.count() != 0 {
		t.Fatalf("rejected callback notified")
	}
}

func TestHandleCallbackValidation(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.seed(t, "R1")

	tests := map[string]CallbackInput{
		"missing request id": {Status: "1"},
		"missing status":     {RequestID: "R1"},
		"missing signature":  {RequestID: "R1", Status: "1"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.HandleCallback(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestHandleCallbackLenientSkipsMissingSignature(t *testing.T) {
	f := newFixture(t, config.SignatureLenient, false)
	f.seed(t, "R1")

	res, err := f.svc.HandleCallback(context.Background(), CallbackInput{RequestID: "R1", Status: "99", Message: "queued"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != models.StatusPending || res.Message != "queued" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestHandleCallbackReplayNotifiesOnce(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.seed(t, "R1")
	in := f.signed("R1", "1", 10000)

	first, err := f.svc.HandleCallback(context.Background(), in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.svc.HandleCallback(context.Background(), in)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if *first != *second {
		t.Fatalf("replay changed the result: %+v vs %+v", first, second)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", f.notifier.count())
	}
}

func TestHandleCallbackUnknownCodeStaysOpen(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.seed(t, "R1")
	ctx := context.Background()

	res, err := f.svc.HandleCallback(ctx, f.signed("R1", "42", 0))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != models.StatusUnknown {
		t.Fatalf("expected unknown, got %s", res.Status)
	}
	res, err = f.svc.HandleCallback(ctx, f.signed("R1", "1", 10000))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("unknown must not be terminal, got %s", res.Status)
	}
}

func TestHandleCallbackStorageError(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	f.svc.repo = failingRepo{f.repo}

	_, err := f.svc.HandleCallback(context.Background(), f.signed("R1", "1", 10000))
	if !repositories.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("storage failure reported as not found")
	}
}

func TestLookup(t *testing.T) {
	f := newFixture(t, config.SignatureStrict, false)
	ctx := context.Background()

	if _, err := f.svc.Lookup(ctx, "R1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before registration, got %v", err)
	}

	f.seed(t, "R1")
	if _, err := f.svc.HandleCallback(ctx, f.signed("R1", "2", 0)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	res, err := f.svc.Lookup(ctx, "R1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if res.Status != models.StatusFailed || res.DisplayLabel != "Wrong denomination" {
		t.Fatalf("unexpected lookup %+v", res)
	}

	if _, err := f.svc.Lookup(ctx, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRequestServiceRegister(t *testing.T) {
	repo := memory.NewTopupRepository(false)
	svc := NewRequestService(repo, zap.NewNop())
	ctx := context.Background()

	req, err := svc.Register(ctx, RegisterInput{RequestID: "R9", OwnerRef: "77", Telco: "viettel", Denomination: 20000})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if req.ExpectedAmount != 20000 || req.Telco != "VIETTEL" || req.Status != models.StatusPending {
		t.Fatalf("unexpected request %+v", req)
	}
	if _, err := svc.Register(ctx, RegisterInput{RequestID: "R9"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{RequestID: "R10", Denomination: -1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
