package store

import (
	"context"

	"notify-center/internal/models"
)

// InsertParams carries the fields the caller controls on insert. The store
// assigns id and created_at and forces read=false.
type InsertParams struct {
	Type     string
	Message  string
	Severity string
	IssueKey string
	User     string
	Action   string
	Metadata map[string]any
	UserID   *string
}

// Store is the durable notification table. Writes are serialized with
// respect to each other; reads never observe partial rows.
//
// Insert fails only when the underlying storage is unreachable, in which
// case the error wraps pkgerrors.StorageError. MarkRead returns
// pkgerrors.ErrRecordNotFound for a missing id and is otherwise idempotent.
// Delete reports whether a row was removed; a second call returns false.
type Store interface {
	Insert(ctx context.Context, p InsertParams) (*models.Notification, error)
	// List returns rows targeted at userID plus global rows, newest first.
	List(ctx context.Context, userID string) ([]models.Notification, error)
	// ListAll is the admin view over every row, newest first.
	ListAll(ctx context.Context, limit, offset int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}
