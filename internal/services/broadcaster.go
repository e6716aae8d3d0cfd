package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"notify-center/internal/models"
	"notify-center/pkg/metrics"
)

// DefaultMailboxSize bounds each session's pending queue. A session that
// falls this far behind starts missing pushes; the persisted row remains the
// recovery path via list on reconnect.
const DefaultMailboxSize = 50

// Session is one connected live viewer. The mailbox is owned exclusively by
// the session's drain loop and is never closed: sessions exit through their
// transport context, so a publish racing an unregister at worst enqueues
// into a mailbox nobody will drain.
type Session struct {
	ID          string
	UserID      string
	Mailbox     chan *models.Notification
	ConnectedAt time.Time
}

// Broadcaster owns the registry of live sessions and fans notifications out
// to every session whose identity matches the targets. Registry mutation is
// guarded by the lock; delivery operates on a snapshot taken under the lock
// so no enqueue ever happens while it is held.
type Broadcaster struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	mailboxSize int
}

func NewBroadcaster(mailboxSize int) *Broadcaster {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Broadcaster{
		sessions:    make(map[string]*Session),
		mailboxSize: mailboxSize,
	}
}

// Register creates a session with a fresh bounded mailbox and adds it to the
// registry. userID may be empty for an anonymous session, which then only
// matches global targets.
func (b *Broadcaster) Register(userID string) *Session {
	s := &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		Mailbox:     make(chan *models.Notification, b.mailboxSize),
		ConnectedAt: time.Now(),
	}

	b.mu.Lock()
	b.sessions[s.ID] = s
	b.mu.Unlock()

	metrics.ActiveSessions.Inc()
	log.Printf("stream session connected: %s (user=%q)", s.ID, userID)
	return s
}

// Unregister removes a session from the registry. Idempotent; every session
// exit path must reach it or the mailbox leaks for the process lifetime.
func (b *Broadcaster) Unregister(s *Session) {
	b.mu.Lock()
	_, ok := b.sessions[s.ID]
	delete(b.sessions, s.ID)
	b.mu.Unlock()

	if ok {
		metrics.ActiveSessions.Dec()
		log.Printf("stream session disconnected: %s (user=%q)", s.ID, s.UserID)
	}
}

// Publish enqueues the notification onto every matching session's mailbox.
// Enqueues are non-blocking: a full mailbox drops that one delivery and
// never affects any other session or the caller. Publish never fails.
func (b *Broadcaster) Publish(targets Targets, n *models.Notification) {
	b.mu.RLock()
	snapshot := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		snapshot = append(snapshot, s)
	}
	b.mu.RUnlock()

	for _, s := range snapshot {
		if !targets.Contains(s.UserID) {
			continue
		}
		select {
		case s.Mailbox <- n:
		default:
			metrics.DroppedDeliveries.Inc()
			log.Printf("mailbox full, dropping notification %d for session %s", n.ID, s.ID)
		}
	}
}

// SessionCount returns the number of registered sessions.
func (b *Broadcaster) SessionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}
