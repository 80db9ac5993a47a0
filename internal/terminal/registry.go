package terminal

import (
	"sync"
	"time"
)

// Factory builds the controller for a newly opened session.
type Factory func(cashier string) *Controller

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry holds one controller per login session.
type Registry struct {
	factory Factory
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory:  factory,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Get returns the controller for key, creating it when the session is new.
// created tells the caller to run the initial catalog load.
func (r *Registry) Get(key, cashier string) (ctrl *Controller, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		s.lastSeen = r.now()
		return s.ctrl, false
	}
	s := &session{ctrl: r.factory(cashier), lastSeen: r.now()}
	r.sessions[key] = s
	return s.ctrl, true
}

// Replace discards any state under key and starts a fresh session.
func (r *Registry) Replace(key, cashier string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &session{ctrl: r.factory(cashier), lastSeen: r.now()}
	r.sessions[key] = s
	return s.ctrl
}

func (r *Registry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// Sweep drops sessions idle for longer than maxIdle and returns their keys.
func (r *Registry) Sweep(maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var dropped []string
	for key, s := range r.sessions {
		if now.Sub(s.lastSeen) > maxIdle {
			delete(r.sessions, key)
			dropped = append(dropped, key)
		}
	}
	return dropped
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
