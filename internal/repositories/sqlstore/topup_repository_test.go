package sqlstore

import (
	"context"
	"testing"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"github.com/ArowuTest/topup-callback/internal/repositories/repotest"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestTopupRepositoryConformance(t *testing.T) {
	repotest.RunTopupRepositoryConformance(t, func(t *testing.T, upsertUnknown bool) repositories.TopupRequestRepository {
		return NewTopupRepository(openTestDB(t), upsertUnknown)
	})
}

func TestPing(t *testing.T) {
	repo := NewTopupRepository(openTestDB(t), false)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNotificationRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openTestDB(t))

	rec := &models.NotificationRecord{
		ID:        "n-1",
		RequestID: "R1",
		OwnerRef:  "42",
		Status:    models.StatusSuccess,
		Content:   "Top-up R1: Successful",
		Gateway:   "log",
		State:     models.NotificationPending,
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdateState(ctx, "n-1", models.NotificationSent, "msg-9", ""); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindByRequestID(ctx, "R1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].State != models.NotificationSent || got[0].MessageID != "msg-9" {
		t.Fatalf("unexpected record %+v", got[0])
	}
	if got[0].SentAt.IsZero() {
		t.Fatalf("sent_at not recorded")
	}
	if got[0].Status != models.StatusSuccess {
		t.Fatalf("unexpected topup status %s", got[0].Status)
	}
}
