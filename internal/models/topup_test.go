package models

import (
	"testing"
	"time"
)

func TestApplyTransitionPendingToSuccess(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := TopupRequest{RequestID: "R1", Status: StatusPending, ExpectedAmount: 10000}

	changed := ApplyTransition(&rec, StatusUpdate{
		RequestID:      "R1",
		Status:         StatusSuccess,
		RawStatus:      "1",
		Message:        "ok",
		ReceivedAmount: 10000,
		Now:            now,
	})
	if !changed {
		t.Fatalf("expected record to change")
	}
	if rec.Status != StatusSuccess || rec.ReceivedAmount != 10000 || rec.Message != "ok" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, rec.UpdatedAt)
	}
}

func TestApplyTransitionTerminalIsSticky(t *testing.T) {
	for _, terminal := range TerminalStatuses() {
		for _, next := range []TopupStatus{StatusPending, StatusSuccess, StatusFailed, StatusError, StatusUnknown} {
			if next == terminal {
				continue
			}
			rec := TopupRequest{Status: terminal, RawStatus: "x", ReceivedAmount: 500, Message: "before"}
			ApplyTransition(&rec, StatusUpdate{Status: next, RawStatus: "y", Message: "after", ReceivedAmount: 9999, Now: time.Now()})
			if rec.Status != terminal {
				t.Fatalf("%s -> %s: status overwritten to %s", terminal, next, rec.Status)
			}
			if rec.ReceivedAmount != 500 {
				t.Fatalf("%s -> %s: received_amount overwritten to %d", terminal, next, rec.ReceivedAmount)
			}
			if rec.RawStatus != "x" {
				t.Fatalf("%s -> %s: raw status overwritten to %s", terminal, next, rec.RawStatus)
			}
			if rec.Message != "after" {
				t.Fatalf("%s -> %s: expected message to be recorded", terminal, next)
			}
		}
	}
}

func TestApplyTransitionNonSuccessKeepsAmount(t *testing.T) {
	rec := TopupRequest{Status: StatusPending}
	ApplyTransition(&rec, StatusUpdate{Status: StatusFailed, RawStatus: "3", ReceivedAmount: 10000, Now: time.Now()})
	if rec.ReceivedAmount != 0 {
		t.Fatalf("expected received_amount to stay 0, got %d", rec.ReceivedAmount)
	}
}

func TestApplyTransitionReplayIsNoop(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	upd := StatusUpdate{Status: StatusSuccess, RawStatus: "1", Message: "ok", ReceivedAmount: 100, Now: first}
	rec := TopupRequest{Status: StatusPending}
	ApplyTransition(&rec, upd)
	snapshot := rec

	upd.Now = first.Add(time.Minute)
	if ApplyTransition(&rec, upd) {
		t.Fatalf("expected replay to be a no-op")
	}
	if rec != snapshot {
		t.Fatalf("record changed on replay: %+v vs %+v", rec, snapshot)
	}
}

func TestUnknownIsNotTerminal(t *testing.T) {
	rec := TopupRequest{Status: StatusUnknown, RawStatus: "7"}
	ApplyTransition(&rec, StatusUpdate{Status: StatusSuccess, RawStatus: "1", ReceivedAmount: 20000, Now: time.Now()})
	if rec.Status != StatusSuccess || rec.ReceivedAmount != 20000 {
		t.Fatalf("expected unknown to resolve to success, got %+v", rec)
	}
}

func TestParseTopupStatus(t *testing.T) {
	if s, ok := ParseTopupStatus(" Success "); !ok || s != StatusSuccess {
		t.Fatalf("expected success, got %q %v", s, ok)
	}
	if _, ok := ParseTopupStatus("processing"); ok {
		t.Fatalf("expected processing to be rejected")
	}
}
