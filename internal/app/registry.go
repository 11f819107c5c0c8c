package app

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrUnknownSession = errors.New("unknown session")

type sessionEntry struct {
	Conn       core.SignalConnection
	Cancel     context.CancelFunc
	Identifier domain.Identifier
}

// Registry is the identity registry: live connections plus the
// identifier <-> connection binding used for routing and cleanup.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[core.SessionID]*sessionEntry
	identities map[domain.Identifier]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[core.SessionID]*sessionEntry),
		identities: make(map[domain.Identifier]core.SessionID),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// ClaimResult describes what a successful Claim changed.
type ClaimResult struct {
	Previous domain.Identifier
	Changed  bool
}

// Claim binds id to sid. It fails with domain.ErrIdentifierConflict, leaving
// the registry untouched, when another connection already owns id. Any
// identifier previously owned by sid is released and reported in Previous.
func (r *Registry) Claim(sid core.SessionID, id domain.Identifier) (ClaimResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sid]
	if !ok {
		return ClaimResult{}, ErrUnknownSession
	}
	if owner, taken := r.identities[id]; taken {
		if owner != sid {
			return ClaimResult{}, domain.ErrIdentifierConflict
		}
		return ClaimResult{}, nil
	}

	res := ClaimResult{Previous: entry.Identifier, Changed: true}
	if entry.Identifier != "" {
		delete(r.identities, entry.Identifier)
	}
	entry.Identifier = id
	r.identities[id] = sid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("identifier", string(id)).Str("previous", string(res.Previous)).Msg("claimed identifier")
	return res, nil
}

// Resolve looks up the live connection currently bound to id.
func (r *Registry) Resolve(id domain.Identifier) (core.SignalConnection, core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.identities[id]
	if !ok {
		return nil, "", false
	}
	e, ok := r.sessions[sid]
	if !ok {
		return nil, "", false
	}
	return e.Conn, sid, true
}

func (r *Registry) IdentifierOf(sid core.SessionID) (domain.Identifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Identifier == "" {
		return "", false
	}
	return e.Identifier, true
}

func (r *Registry) GetSession(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Unbind drops the connection and every mapping it owns, returning the
// identifier that was freed, if any.
func (r *Registry) Unbind(sid core.SessionID) (domain.Identifier, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("identifier", string(e.Identifier)).Msg("unbind session")
	if e.Identifier == "" {
		return "", false
	}
	if owner := r.identities[e.Identifier]; owner == sid {
		delete(r.identities, e.Identifier)
	}
	return e.Identifier, true
}

// List returns the bound identifiers. Callers must not rely on the order.
func (r *Registry) List() []domain.Identifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Identifier, 0, len(r.identities))
	for id := range r.identities {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

type regSnap struct {
	SID  core.SessionID
	Conn core.SignalConnection
}

// Connections snapshots every live connection, identified or not.
func (r *Registry) Connections() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, regSnap{SID: sid, Conn: e.Conn})
	}
	return out
}

func (r *Registry) Counts() (sessions, identities int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.identities)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
