// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package teleport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/island"
)

// Session is the ephemeral runtime state of one connected actor.
type Session struct {
	Actor          ulid.ULID
	TeleportIntent bool // a teleport or creation is in flight
	RespawnPending bool // set on death, cleared on respawn placement
	ConnectedAt    time.Time

	transient bool // opened by begin for an offline actor
}

// Sessions tracks actor sessions. It is the only holder of teleport intents,
// and intents are scoped per actor so unrelated actors never wait on each other.
type Sessions struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]*Session
	now      func() time.Time
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[ulid.ULID]*Session), now: time.Now}
}

// Connect creates the actor's session if needed and returns a copy.
func (s *Sessions) Connect(actor ulid.ULID) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(actor)
	sess.transient = false
	ActiveSessions.Set(float64(len(s.sessions)))
	return *sess
}

// Disconnect destroys the actor's session. An in-flight operation keeps
// running; its release becomes a no-op.
func (s *Sessions) Disconnect(actor ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[actor]; !ok {
		slog.Debug("disconnect for unknown session", "actor_id", actor.String())
		return
	}
	delete(s.sessions, actor)
	ActiveSessions.Set(float64(len(s.sessions)))
}

// Get returns a copy of the actor's session.
func (s *Sessions) Get(actor ulid.ULID) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[actor]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Len returns the number of sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Pending reports whether the actor has a teleport in flight.
func (s *Sessions) Pending(actor ulid.ULID) bool {
	sess, ok := s.Get(actor)
	return ok && sess.TeleportIntent
}

// SetRespawnPending flags or clears the actor's respawn placement.
func (s *Sessions) SetRespawnPending(actor ulid.ULID, pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(actor).RespawnPending = pending
}

// TakeRespawnPending clears the respawn flag and reports whether it was set.
func (s *Sessions) TakeRespawnPending(actor ulid.ULID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[actor]
	if !ok || !sess.RespawnPending {
		return false
	}
	sess.RespawnPending = false
	return true
}

// begin moves the actor from Idle to Pending. The returned release moves it
// back and must be called on every exit path. Actors without a session get
// a transient one, so tooling that acts on offline actors is serialized too;
// release drops it again unless the actor connected in the meantime.
func (s *Sessions) begin(actor ulid.ULID) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[actor]
	if !ok {
		sess = s.getOrCreateLocked(actor)
		sess.transient = true
	}
	if sess.TeleportIntent {
		PendingRejections.Inc()
		return nil, oops.Code(island.CodeTeleportPending).
			With("actor_id", actor.String()).
			Wrap(island.ErrTeleportPending)
	}
	sess.TeleportIntent = true
	ActiveSessions.Set(float64(len(s.sessions)))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			cur, ok := s.sessions[actor]
			if !ok || cur != sess {
				return
			}
			cur.TeleportIntent = false
			if cur.transient && !cur.RespawnPending {
				delete(s.sessions, actor)
				ActiveSessions.Set(float64(len(s.sessions)))
			}
		})
	}, nil
}

func (s *Sessions) getOrCreateLocked(actor ulid.ULID) *Session {
	sess, ok := s.sessions[actor]
	if !ok {
		sess = &Session{Actor: actor, ConnectedAt: s.now()}
		s.sessions[actor] = sess
	}
	return sess
}
