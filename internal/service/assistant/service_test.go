package assistant

import (
	"context"
	"database/sql"
	"testing"

	"medchat/internal/models"
	"medchat/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestEnsureSessionIsIdempotent(t *testing.T) {
	svc, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()

	first, err := svc.EnsureSession(ctx, "abc-123")
	if err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	second, err := svc.EnsureSession(ctx, "abc-123")
	if err != nil {
		t.Fatalf("ensure session again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same key produced two sessions: %d vs %d", first.ID, second.ID)
	}

	if _, err := svc.EnsureSession(ctx, "  "); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestHistoryRoundTripPreservesOrder(t *testing.T) {
	svc, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()

	session, err := svc.EnsureSession(ctx, "order-test")
	if err != nil {
		t.Fatalf("ensure session: %v", err)
	}

	turns := []struct {
		role    models.Role
		content string
	}{
		{models.RoleUser, "what is anemia?"},
		{models.RoleAssistant, "Anemia is a shortage of red blood cells."},
		{models.RoleUser, "and the symptoms?"},
	}
	for _, turn := range turns {
		if _, err := svc.AppendMessage(ctx, session.ID, turn.role, turn.content); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}

	history, err := svc.History(ctx, session.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != len(turns) {
		t.Fatalf("expected %d messages, got %d", len(turns), len(history))
	}
	for i, msg := range history {
		if msg.Role != turns[i].role || msg.Content != turns[i].content {
			t.Errorf("message %d = %s %q, want %s %q", i, msg.Role, msg.Content, turns[i].role, turns[i].content)
		}
	}
}

func TestClearHistoryEmptiesOnlyTargetSession(t *testing.T) {
	svc, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()

	one, _ := svc.EnsureSession(ctx, "one")
	two, _ := svc.EnsureSession(ctx, "two")
	if _, err := svc.AppendMessage(ctx, one.ID, models.RoleUser, "hi"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := svc.AppendMessage(ctx, two.ID, models.RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.ClearHistory(ctx, one.ID); err != nil {
		t.Fatalf("clear history: %v", err)
	}

	cleared, err := svc.History(ctx, one.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(cleared) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(cleared))
	}
	kept, err := svc.History(ctx, two.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("other session lost messages: %d", len(kept))
	}

	// session row survives a clear
	again, err := svc.EnsureSession(ctx, "one")
	if err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	if again.ID != one.ID {
		t.Fatalf("session row dropped by clear")
	}
}
