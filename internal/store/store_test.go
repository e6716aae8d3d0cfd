package store

import (
	"context"
	"testing"

	pkgerrors "notify-center/pkg/errors"
)

func insertN(t *testing.T, s Store, n int, userID *string) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		row, err := s.Insert(context.Background(), InsertParams{
			Type:    "generic",
			Message: "msg",
			UserID:  userID,
		})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		ids = append(ids, row.ID)
	}
	return ids
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	s := NewMemoryStore()
	ids := insertN(t, s, 5, nil)

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}
}

func TestInsertDefaults(t *testing.T) {
	s := NewMemoryStore()
	n, err := s.Insert(context.Background(), InsertParams{Type: "generic", Message: "x"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if n.Read {
		t.Error("new notification must start unread")
	}
	if n.Severity != "info" {
		t.Errorf("severity = %q, want info default", n.Severity)
	}
	if n.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
	if n.UserID != nil {
		t.Error("user_id should be nil for a global row")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ids := insertN(t, s, 10, nil)

	list, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != len(ids) {
		t.Fatalf("got %d rows, want %d", len(list), len(ids))
	}
	for i := 1; i < len(list); i++ {
		if list[i].ID >= list[i-1].ID {
			t.Fatalf("list not in descending id order at index %d", i)
		}
	}
	if list[0].ID != ids[len(ids)-1] {
		t.Errorf("first row id = %d, want most recent %d", list[0].ID, ids[len(ids)-1])
	}
}

func TestListUnionOfUserAndGlobal(t *testing.T) {
	s := NewMemoryStore()
	u1 := "u1"
	u2 := "u2"
	insertN(t, s, 2, &u1)
	insertN(t, s, 3, &u2)
	insertN(t, s, 1, nil)

	list, err := s.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d rows for u1, want 2 targeted + 1 global", len(list))
	}
	for _, n := range list {
		if n.UserID != nil && *n.UserID != "u1" {
			t.Errorf("row %d targeted at %q leaked into u1's view", n.ID, *n.UserID)
		}
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ids := insertN(t, s, 1, nil)

	first, err := s.MarkRead(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("first markRead failed: %v", err)
	}
	if !first.Read {
		t.Error("notification not marked read")
	}

	second, err := s.MarkRead(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("second markRead failed: %v", err)
	}
	if !second.Read {
		t.Error("read flag must stay true")
	}
}

func TestMarkReadMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.MarkRead(context.Background(), 42); err != pkgerrors.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ids := insertN(t, s, 1, nil)

	removed, err := s.Delete(context.Background(), ids[0])
	if err != nil || !removed {
		t.Fatalf("first delete = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = s.Delete(context.Background(), ids[0])
	if err != nil || removed {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", removed, err)
	}

	list, _ := s.List(context.Background(), "")
	if len(list) != 0 {
		t.Errorf("row still present after delete")
	}
}

func TestDeleteDoesNotReuseIDs(t *testing.T) {
	s := NewMemoryStore()
	ids := insertN(t, s, 3, nil)
	if _, err := s.Delete(context.Background(), ids[2]); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	next := insertN(t, s, 1, nil)
	if next[0] <= ids[2] {
		t.Errorf("id %d reused after delete of %d", next[0], ids[2])
	}
}

func TestUnreadCountAndMarkAllRead(t *testing.T) {
	s := NewMemoryStore()
	u1 := "u1"
	u2 := "u2"
	insertN(t, s, 2, &u1)
	insertN(t, s, 1, &u2)
	insertN(t, s, 1, nil)

	count, err := s.UnreadCount(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unreadCount failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("unread count = %d, want 3 (2 targeted + 1 global)", count)
	}

	updated, err := s.MarkAllRead(context.Background(), "u1")
	if err != nil {
		t.Fatalf("markAllRead failed: %v", err)
	}
	if updated != 3 {
		t.Errorf("markAllRead updated %d rows, want 3", updated)
	}

	count, _ = s.UnreadCount(context.Background(), "u1")
	if count != 0 {
		t.Errorf("unread count after markAllRead = %d, want 0", count)
	}
	// u2's targeted row must be untouched.
	count, _ = s.UnreadCount(context.Background(), "u2")
	if count != 1 {
		t.Errorf("u2 unread count = %d, want 1", count)
	}
}

func TestListAllPagination(t *testing.T) {
	s := NewMemoryStore()
	insertN(t, s, 7, nil)

	page, total, err := s.ListAll(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("listAll failed: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(page) != 3 {
		t.Fatalf("page size = %d, want 3", len(page))
	}
	if page[0].ID != 7 {
		t.Errorf("first page starts at id %d, want newest (7)", page[0].ID)
	}

	page2, _, err := s.ListAll(context.Background(), 3, 6)
	if err != nil {
		t.Fatalf("listAll offset failed: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("last page size = %d, want 1", len(page2))
	}
}
