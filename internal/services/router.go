package services

import (
	"notify-center/internal/models"
)

// Targets is the routing decision for one event. Global means every
// connected session matches; otherwise Users holds the individual
// recipients. A zero Targets (neither global nor users) means the event is
// suppressed entirely and no notification is created.
type Targets struct {
	Global bool
	Users  []string
}

// Suppressed reports whether the event should produce no notification.
func (t Targets) Suppressed() bool {
	return !t.Global && len(t.Users) == 0
}

// Contains reports whether a session with the given identity matches.
// Every session matches a global target, including anonymous ones.
func (t Targets) Contains(userID string) bool {
	if t.Global {
		return true
	}
	for _, u := range t.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// Router decides the recipient set for an event. Pure policy, no I/O.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

// Route applies the targeting policy: explicit watchers route individually,
// minus the actor (actors never see notifications about their own action);
// no watcher list means a desk-wide event and routes global. If removing the
// actor empties the watcher set the event is suppressed rather than
// delivered to nobody. Malformed input fails open toward global so a routing
// bug over-notifies instead of silently dropping.
func (r *Router) Route(ev *models.Event) Targets {
	if ev == nil {
		return Targets{Global: true}
	}
	if len(ev.Watchers) == 0 {
		return Targets{Global: true}
	}

	users := make([]string, 0, len(ev.Watchers))
	seen := make(map[string]struct{}, len(ev.Watchers))
	malformed := true
	for _, w := range ev.Watchers {
		if w.ID == "" {
			continue
		}
		malformed = false
		if w.ID == ev.ActorID {
			continue
		}
		if _, ok := seen[w.ID]; ok {
			continue
		}
		seen[w.ID] = struct{}{}
		users = append(users, w.ID)
	}

	// A watcher list with no usable identities is malformed, not a
	// self-suppression case.
	if malformed {
		return Targets{Global: true}
	}
	return Targets{Users: users}
}
