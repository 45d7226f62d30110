package quota

import (
	"sync"
	"time"

	"github.com/echukwudebere/kachifo/models"
)

const (
	clientWindow = time.Hour
	globalWindow = 24 * time.Hour

	// stale per-client windows are swept once the map grows past this
	sweepThreshold = 1024
)

type window struct {
	used  int
	start time.Time
}

// Guard enforces two independent ceilings, checked before any provider or
// enrichment work: a per-client hourly window and a global daily cap
// shared by all clients. Counters reset lazily when their window elapses.
type Guard struct {
	mu        sync.Mutex
	perClient int
	global    int
	clients   map[string]*window
	globalWin window
	now       func() time.Time
}

func New(perClientPerHour, globalPerDay int) *Guard {
	return &Guard{
		perClient: perClientPerHour,
		global:    globalPerDay,
		clients:   make(map[string]*window),
		now:       time.Now,
	}
}

// Allow consumes one invocation for clientID. On violation it returns
// models.ErrQuotaExceeded without consuming anything, so the caller makes
// zero downstream calls.
func (g *Guard) Allow(clientID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.globalWin.start.IsZero() || now.Sub(g.globalWin.start) >= globalWindow {
		g.globalWin = window{start: now}
	}

	w, ok := g.clients[clientID]
	if !ok || now.Sub(w.start) >= clientWindow {
		if len(g.clients) >= sweepThreshold {
			g.sweepLocked(now)
		}
		w = &window{start: now}
		g.clients[clientID] = w
	}

	if w.used >= g.perClient || g.globalWin.used >= g.global {
		return models.ErrQuotaExceeded
	}
	w.used++
	g.globalWin.used++
	return nil
}

// Remaining reports what is left in both windows.
func (g *Guard) Remaining(clientID string) (client, global int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	client = g.perClient
	if w, ok := g.clients[clientID]; ok && now.Sub(w.start) < clientWindow {
		client = g.perClient - w.used
	}
	global = g.global
	if !g.globalWin.start.IsZero() && now.Sub(g.globalWin.start) < globalWindow {
		global = g.global - g.globalWin.used
	}
	return client, global
}

func (g *Guard) sweepLocked(now time.Time) {
	for id, w := range g.clients {
		if now.Sub(w.start) >= clientWindow {
			delete(g.clients, id)
		}
	}
}
