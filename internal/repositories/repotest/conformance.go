// Package repotest holds the behavioural checks every TopupRequestRepository backend must pass.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
)

// Factory returns an empty repository. upsertUnknown selects the upsert-unknown-IDs mode.
type Factory func(t *testing.T, upsertUnknown bool) repositories.TopupRequestRepository

// RunTopupRepositoryConformance runs the shared store contract against a backend.
func RunTopupRepositoryConformance(t *testing.T, newRepo Factory) {
	t.Run("UnknownIDRejected", func(t *testing.T) { testUnknownIDRejected(t, newRepo(t, false)) })
	t.Run("UnknownIDUpserted", func(t *testing.T) { testUnknownIDUpserted(t, newRepo(t, true)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newRepo(t, false)) })
	t.Run("PendingToSuccess", func(t *testing.T) { testPendingToSuccess(t, newRepo(t, false)) })
	t.Run("ReplayIsIdempotent", func(t *testing.T) { testReplayIsIdempotent(t, newRepo(t, false)) })
	t.Run("TerminalIsSticky", func(t *testing.T) { testTerminalIsSticky(t, newRepo(t, false)) })
	t.Run("ConcurrentSameID", func(t *testing.T) { testConcurrentSameID(t, newRepo(t, false)) })
	t.Run("ConcurrentDifferentIDs", func(t *testing.T) { testConcurrentDifferentIDs(t, newRepo(t, false)) })
}

// Seed registers a pending request.
func Seed(t *testing.T, repo repositories.TopupRequestRepository, requestID string) {
	t.Helper()
	err := repo.Create(context.Background(), &models.TopupRequest{
		RequestID:      requestID,
		OwnerRef:       "owner-" + requestID,
		Telco:          "VIETTEL",
		Denomination:   10000,
		ExpectedAmount: 10000,
		Status:         models.StatusPending,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", requestID, err)
	}
}

func update(requestID string, status models.TopupStatus, raw string, amount int64, msg string) models.StatusUpdate {
	return models.StatusUpdate{
		RequestID:      requestID,
		Status:         status,
		RawStatus:      raw,
		Message:        msg,
		ReceivedAmount: amount,
		Now:            time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
	}
}

func testUnknownIDRejected(t *testing.T, repo repositories.TopupRequestRepository) {
	ctx := context.Background()
	_, err := repo.UpsertStatus(ctx, update("missing", models.StatusSuccess, "1", 10000, "ok"))
	if !errors.Is(err, repositories.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if repositories.IsStorageError(err) {
		t.Fatalf("not found must not be reported as a storage error")
	}
	exists, err := repo.Exists(ctx, "missing")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("record must not be created for an unknown id")
	}
	if _, err := repo.FindByRequestID(ctx, "missing"); !errors.Is(err, repositories.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound from find, got %v", err)
	}
}

func testUnknownIDUpserted(t *testing.T, repo repositories.TopupRequestRepository) {
	ctx := context.Background()
	res, err := repo.UpsertStatus(ctx, update("fresh", models.StatusSuccess, "1", 20000, "ok"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !res.Created || res.Previous != models.StatusPending || res.Record.Status != models.StatusSuccess {
		t.Fatalf("unexpected result %+v", res)
	}
	stored, err := repo.FindByRequestID(ctx, "fresh")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != models.StatusSuccess || stored.ReceivedAmount != 20000 {
		t.Fatalf("unexpected stored record %+v", stored)
	}
}

func testCreateDuplicate(t *testing.T, repo repositories.TopupRequestRepository) {
	Seed(t, repo, "dup")
	err := repo.Create(context.Background(), &models.TopupRequest{RequestID: "dup"})
	if !errors.Is(err, repositories.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func testPendingToSuccess(t *testing.T, repo repositories.TopupRequestRepository) {
	Seed(t, repo, "R1")
	res, err := repo.UpsertStatus(context.Background(), update("R1", models.StatusSuccess, "1", 10000, "card ok"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res.Previous != models.StatusPending {
		t.Fatalf("expected previous pending, got %s", res.Previous)
	}
	if !res.StatusChanged() {
		t.Fatalf("expected status change")
	}
	if res.Record.ReceivedAmount != 10000 || res.Record.OwnerRef != "owner-R1" {
		t.Fatalf("unexpected record %+v", res.Record)
	}
}

func testReplayIsIdempotent(t *testing.T, repo repositories.TopupRequestRepository) {
	ctx := context.Background()
	Seed(t, repo, "R2")
	upd := update("R2", models.StatusSuccess, "1", 10000, "card ok")

	first, err := repo.UpsertStatus(ctx, upd)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	before, err := repo.FindByRequestID(ctx, "R2")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	upd.Now = upd.Now.Add(time.Hour)
	second, err := repo.UpsertStatus(ctx, upd)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	after, err := repo.FindByRequestID(ctx, "R2")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if !first.StatusChanged() {
		t.Fatalf("first application must report a change")
	}
	if second.StatusChanged() {
		t.Fatalf("replay must not report a change")
	}
	if err := sameRecord(before, after); err != nil {
		t.Fatalf("replay modified the record: %v", err)
	}
}

func testTerminalIsSticky(t *testing.T, repo repositories.TopupRequestRepository) {
	ctx := context.Background()
	Seed(t, repo, "R3")
	if _, err := repo.UpsertStatus(ctx, update("R3", models.StatusSuccess, "1", 10000, "card ok")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for _, next := range []models.StatusUpdate{
		update("R3", models.StatusFailed, "3", 0, "rejected later"),
		update("R3", models.StatusPending, "99", 0, "still pending"),
		update("R3", models.StatusSuccess, "1", 50000, "double credit"),
	} {
		res, err := repo.UpsertStatus(ctx, next)
		if err != nil {
			t.Fatalf("upsert %s: %v", next.Status, err)
		}
		if res.StatusChanged() {
			t.Fatalf("%s: terminal request reported a status change", next.Status)
		}
		stored, err := repo.FindByRequestID(ctx, "R3")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if stored.Status != models.StatusSuccess || stored.ReceivedAmount != 10000 {
			t.Fatalf("%s: terminal state overwritten: %+v", next.Status, stored)
		}
		if stored.Message != next.Message {
			t.Fatalf("%s: expected message %q to be recorded, got %q", next.Status, next.Message, stored.Message)
		}
	}
}

func testConcurrentSameID(t *testing.T, repo repositories.TopupRequestRepository) {
	ctx := context.Background()
	Seed(t, repo, "R4")

	const n = 24
	statuses := []struct {
		status models.TopupStatus
		raw    string
	}{
		{models.StatusPending, "99"},
		{models.StatusSuccess, "1"},
		{models.StatusFailed, "3"},
		{models.StatusUnknown, "7"},
	}

	results := make([]*models.TransitionResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := statuses[i%len(statuses)]
			results[i], errs[i] = repo.UpsertStatus(ctx, update("R4", s.status, s.raw, int64(1000*(i+1)), fmt.Sprintf("update %d", i)))
		}(i)
	}
	wg.Wait()

	finalizers := 0
	var winner *models.TransitionResult
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("update %d: %v", i, errs[i])
		}
		if !results[i].Previous.IsTerminal() && results[i].Record.Status.IsTerminal() {
			finalizers++
			winner = results[i]
		}
	}
	if finalizers != 1 {
		t.Fatalf("expected exactly one update to finalize the request, got %d", finalizers)
	}

	stored, err := repo.FindByRequestID(ctx, "R4")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != winner.Record.Status || stored.ReceivedAmount != winner.Record.ReceivedAmount {
		t.Fatalf("stored %s/%d does not match the finalizing update %s/%d",
			stored.Status, stored.ReceivedAmount, winner.Record.Status, winner.Record.ReceivedAmount)
	}
	if stored.Status == models.StatusSuccess && stored.ReceivedAmount == 0 {
		t.Fatalf("success without amount")
	}
}

func testConcurrentDifferentIDs(t *testing.T, repo repositories.TopupRequestRepository) {
	ctx := context.Background()
	const n = 16
	for i := 0; i < n; i++ {
		Seed(t, repo, fmt.Sprintf("P%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("P%d", i)
			res, err := repo.UpsertStatus(ctx, update(id, models.StatusSuccess, "1", int64(i+1), "ok"))
			if err != nil {
				errs <- err
				return
			}
			if !res.StatusChanged() {
				errs <- fmt.Errorf("%s: expected status change", id)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func sameRecord(a, b *models.TopupRequest) error {
	switch {
	case a.Status != b.Status:
		return fmt.Errorf("status %s != %s", a.Status, b.Status)
	case a.RawStatus != b.RawStatus:
		return fmt.Errorf("raw status %s != %s", a.RawStatus, b.RawStatus)
	case a.ReceivedAmount != b.ReceivedAmount:
		return fmt.Errorf("received amount %d != %d", a.ReceivedAmount, b.ReceivedAmount)
	case a.Message != b.Message:
		return fmt.Errorf("message %q != %q", a.Message, b.Message)
	case !a.UpdatedAt.Equal(b.UpdatedAt):
		return fmt.Errorf("updated_at %v != %v", a.UpdatedAt, b.UpdatedAt)
	}
	return nil
}
