package store

import (
	"context"
	"sync"
	"time"

	"notify-center/internal/models"
	pkgerrors "notify-center/pkg/errors"
)

// MemoryStore is the in-process Store implementation used by the memory
// database driver and the test suite. Rows live in insertion order; nextID
// is monotonic for the process lifetime and never reused after delete.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []*models.Notification
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Insert(_ context.Context, p InsertParams) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	severity := p.Severity
	if severity == "" {
		severity = models.SeverityInfo
	}
	n := &models.Notification{
		ID:        s.nextID,
		Type:      p.Type,
		Message:   p.Message,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
		Read:      false,
		IssueKey:  p.IssueKey,
		User:      p.User,
		Action:    p.Action,
		Metadata:  p.Metadata,
		UserID:    p.UserID,
	}
	s.nextID++
	s.rows = append(s.rows, n)

	cp := *n
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.Notification
	for i := len(s.rows) - 1; i >= 0; i-- {
		n := s.rows[i]
		if n.UserID == nil || *n.UserID == userID {
			list = append(list, *n)
		}
	}
	return list, nil
}

func (s *MemoryStore) ListAll(_ context.Context, limit, offset int) ([]models.Notification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	total := len(s.rows)
	var list []models.Notification
	for i := total - 1 - offset; i >= 0 && len(list) < limit; i-- {
		list = append(list, *s.rows[i])
	}
	return list, total, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id int64) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.rows {
		if n.ID == id {
			n.Read = true
			cp := *n
			return &cp, nil
		}
	}
	return nil, pkgerrors.ErrRecordNotFound
}

func (s *MemoryStore) MarkAllRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, n := range s.rows {
		if n.Read {
			continue
		}
		if n.UserID == nil || *n.UserID == userID {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.rows {
		if n.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.rows {
		if !n.Read && (n.UserID == nil || *n.UserID == userID) {
			count++
		}
	}
	return count, nil
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*PostgresStore)(nil)
