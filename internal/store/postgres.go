package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"

	"notify-center/internal/models"
	pkgerrors "notify-center/pkg/errors"
)

type Database struct {
	Pool *pgxpool.Pool
}

func NewDatabase() (*Database, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		viper.GetString("database.username"),
		viper.GetString("database.password"),
		viper.GetString("database.host"),
		viper.GetInt("database.port"),
		viper.GetString("database.name"),
		viper.GetString("database.sslmode"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	maxOpen := viper.GetInt("database.max_open_conns")
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := viper.GetInt("database.max_idle_conns")
	if maxIdle <= 0 {
		maxIdle = 5
	}
	maxLifetime := viper.GetInt("database.conn_max_lifetime")
	if maxLifetime <= 0 {
		maxLifetime = 300
	}
	config.MaxConns = int32(maxOpen)
	config.MinConns = int32(maxIdle)
	config.MaxConnLifetime = time.Duration(maxLifetime) * time.Second

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

func (d *Database) Close() {
	d.Pool.Close()
}

// Migrate creates the notifications table. The subsystem owns a single
// append-mostly table; dedup and rate-limit state stay in memory.
func (d *Database) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			type VARCHAR(32) NOT NULL,
			message TEXT NOT NULL,
			severity VARCHAR(16) NOT NULL DEFAULT 'info',
			created_at TIMESTAMPTZ NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			issue_key VARCHAR(64),
			user_name VARCHAR(128),
			action VARCHAR(64),
			metadata JSONB,
			user_id VARCHAR(128)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id, read) WHERE read = FALSE`,
	}
	for _, m := range migrations {
		if _, err := d.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	db *Database
}

func NewPostgresStore(db *Database) *PostgresStore {
	return &PostgresStore{db: db}
}

const notificationColumns = `id, type, message, severity, created_at, read,
	COALESCE(issue_key, ''), COALESCE(user_name, ''), COALESCE(action, ''), metadata, user_id`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	var metadata []byte
	if err := row.Scan(&n.ID, &n.Type, &n.Message, &n.Severity, &n.CreatedAt, &n.Read,
		&n.IssueKey, &n.User, &n.Action, &metadata, &n.UserID); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	return &n, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p InsertParams) (*models.Notification, error) {
	now := time.Now().UTC()
	severity := p.Severity
	if severity == "" {
		severity = models.SeverityInfo
	}

	var metadata []byte
	if p.Metadata != nil {
		b, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		metadata = b
	}

	var id int64
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (type, message, severity, created_at, read, issue_key, user_name, action, metadata, user_id)
		VALUES ($1, $2, $3, $4, FALSE, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)
		RETURNING id
	`, p.Type, p.Message, severity, now, p.IssueKey, p.User, p.Action, metadata, p.UserID).Scan(&id)
	if err != nil {
		return nil, pkgerrors.NewStorageError("insert", err)
	}

	return &models.Notification{
		ID:        id,
		Type:      p.Type,
		Message:   p.Message,
		Severity:  severity,
		CreatedAt: now,
		Read:      false,
		IssueKey:  p.IssueKey,
		User:      p.User,
		Action:    p.Action,
		Metadata:  p.Metadata,
		UserID:    p.UserID,
	}, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id IS NULL OR user_id = $1
		ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context, limit, offset int) ([]models.Notification, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, pkgerrors.NewStorageError("list_all", err)
	}
	defer rows.Close()

	list, err := collectNotifications(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, pkgerrors.NewStorageError("list_all", err)
	}
	return list, total, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	row := s.db.Pool.QueryRow(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1
		RETURNING `+notificationColumns,
		id)
	n, err := scanNotification(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, pkgerrors.ErrRecordNotFound
		}
		return nil, pkgerrors.NewStorageError("mark_read", err)
	}
	return n, nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE read = FALSE AND (user_id IS NULL OR user_id = $1)
	`, userID)
	if err != nil {
		return 0, pkgerrors.NewStorageError("mark_all_read", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return false, pkgerrors.NewStorageError("delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE read = FALSE AND (user_id IS NULL OR user_id = $1)
	`, userID).Scan(&count)
	if err != nil {
		return 0, pkgerrors.NewStorageError("unread_count", err)
	}
	return count, nil
}

func collectNotifications(rows pgx.Rows) ([]models.Notification, error) {
	var list []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, pkgerrors.NewStorageError("scan", err)
		}
		list = append(list, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewStorageError("rows", err)
	}
	return list, nil
}
