package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestAppend_FillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	err := svc.Append(context.Background(), Event{
		Type:        EventUserDeleted,
		ActorUserID: "admin-1",
		TargetID:    "user-2",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" {
		t.Fatalf("id must be generated")
	}
	if !events[0].CreatedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("created_at must come from the clock, got %v", events[0].CreatedAt)
	}
}

func TestAppend_RejectsMissingType(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, e Event) error {
	return errors.New("storage down")
}

func TestRecord_SwallowsFailures(t *testing.T) {
	svc := newTestService(failingRepo{})
	// Must not panic or propagate.
	svc.Record(context.Background(), Event{Type: EventSyncTriggered})

	var nilSvc *Service
	nilSvc.Record(context.Background(), Event{Type: EventSyncTriggered})
}
