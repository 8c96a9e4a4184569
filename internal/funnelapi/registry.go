package funnelapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// WizardFactory builds the wizard for a new visitor session.
type WizardFactory func() *funnel.Wizard

type session struct {
	wizard   *funnel.Wizard
	lastSeen time.Time

	// submitting is held from the booking checks until Submit returns, so
	// a screenshot is stored at most once per session.
	submitting sync.Mutex
}

// Registry holds the in-memory visitor sessions. Nothing is persisted: a
// restart of the process forgets every session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  WizardFactory
	idle     time.Duration
	now      func() time.Time
	newID    func() string
	metrics  *metrics.WizardMetrics
	logger   *logging.Logger
}

// NewRegistry creates a registry. Sessions untouched for longer than idle
// are dropped by Sweep; idle <= 0 keeps them forever.
func NewRegistry(factory WizardFactory, idle time.Duration, m *metrics.WizardMetrics, logger *logging.Logger) *Registry {
	if factory == nil {
		panic("funnelapi: wizard factory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		sessions: make(map[string]*session),
		factory:  factory,
		idle:     idle,
		now:      time.Now,
		newID:    uuid.NewString,
		metrics:  m,
		logger:   logger,
	}
}

// Create opens a new session.
func (r *Registry) Create() (string, *funnel.Wizard) {
	w := r.factory()
	id := r.newID()

	r.mu.Lock()
	r.sessions[id] = &session{wizard: w, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	r.logger.Debug("session created", "session_id", id)
	return id, w
}

// Get returns the session's wizard and marks it as used.
func (r *Registry) Get(id string) (*funnel.Wizard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.wizard, true
}

// lockSubmission takes the session's booking lock. The caller must call
// unlock when done.
func (r *Registry) lockSubmission(id string) (unlock func(), ok bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.submitting.Lock()
	return s.submitting.Unlock, true
}

// Len reports how many sessions are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops idle sessions and returns how many went. A delivery still
// running for a dropped session completes on its own.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.SetActiveSessions(n)
		r.logger.Info("idle sessions evicted", "removed", removed, "remaining", n)
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Wait blocks until every session's in-flight delivery has finished.
func (r *Registry) Wait() {
	r.mu.Lock()
	wizards := make([]*funnel.Wizard, 0, len(r.sessions))
	for _, s := range r.sessions {
		wizards = append(wizards, s.wizard)
	}
	r.mu.Unlock()
	for _, w := range wizards {
		w.Wait()
	}
}
