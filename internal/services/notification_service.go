package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"notify-center/internal/models"
	"notify-center/internal/store"
	"notify-center/pkg/metrics"
)

// NotificationService is the only write path into the subsystem. Emit runs
// the dedup gate, persists, routes, then broadcasts, in that order: a
// notification is never pushed before it is durably stored, so a client
// reconnecting right after a push always finds the same record via list.
type NotificationService struct {
	store       store.Store
	dedup       *DedupWindow
	router      *Router
	broadcaster *Broadcaster
}

func NewNotificationService(st store.Store, dedup *DedupWindow, router *Router, broadcaster *Broadcaster) *NotificationService {
	return &NotificationService{
		store:       st,
		dedup:       dedup,
		router:      router,
		broadcaster: broadcaster,
	}
}

// Broadcaster exposes the session registry for the streaming handlers.
func (s *NotificationService) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Store exposes the read side for the HTTP handlers.
func (s *NotificationService) Store() store.Store {
	return s.store
}

// signature fingerprints "what changed and when" for an entity.
func signature(ev *models.Event) string {
	ts := ev.ChangedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return fmt.Sprintf("%s|%s", ev.Type, ts.UTC().Format(time.RFC3339))
}

// Emit persists and fans out one detected change. It returns nil (and no
// error) when the event is suppressed by the dedup window or by
// self-suppression. With multiple watcher targets one row is inserted per
// recipient so each keeps an independent read flag; the first row is
// returned. A storage failure aborts before any broadcast.
func (s *NotificationService) Emit(ctx context.Context, ev *models.Event) (*models.Notification, error) {
	if ev == nil {
		return nil, nil
	}

	gated := ev.IssueKey != ""
	if gated && !s.dedup.ShouldEmit(ev.IssueKey, signature(ev)) {
		metrics.DedupSuppressed.Inc()
		return nil, nil
	}

	targets := s.router.Route(ev)
	if targets.Suppressed() {
		log.Printf("event on %q suppressed: actor %q is the only watcher", ev.IssueKey, ev.ActorID)
		return nil, nil
	}

	params := store.InsertParams{
		Type:     ev.Type,
		Message:  ev.Message,
		Severity: ev.Severity,
		IssueKey: ev.IssueKey,
		User:     ev.User,
		Action:   ev.Action,
		Metadata: ev.Metadata,
	}

	if targets.Global {
		n, err := s.store.Insert(ctx, params)
		if err != nil {
			if gated {
				s.dedup.Forget(ev.IssueKey)
			}
			return nil, err
		}
		metrics.NotificationsEmitted.WithLabelValues(n.Type).Inc()
		s.broadcaster.Publish(targets, n)
		return n, nil
	}

	var first *models.Notification
	for _, userID := range targets.Users {
		uid := userID
		params.UserID = &uid
		n, err := s.store.Insert(ctx, params)
		if err != nil {
			// Rows already written stay; the retry may duplicate them, and
			// at-least-once is acceptable here.
			if gated {
				s.dedup.Forget(ev.IssueKey)
			}
			return nil, err
		}
		metrics.NotificationsEmitted.WithLabelValues(n.Type).Inc()
		s.broadcaster.Publish(Targets{Users: []string{uid}}, n)
		if first == nil {
			first = n
		}
	}
	return first, nil
}
