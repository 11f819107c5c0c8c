package app

import (
	"sync"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/rs/zerolog/log"
)

// CallTracker keeps one record per identifier that is calling or in a call.
// Records are written one side at a time; nothing here assumes the partner
// holds a matching record.
type CallTracker struct {
	mu    sync.Mutex
	calls map[domain.Identifier]domain.CallState
}

func NewCallTracker() *CallTracker {
	return &CallTracker{calls: make(map[domain.Identifier]domain.CallState)}
}

func (t *CallTracker) SetState(id, partner domain.Identifier, phase domain.CallPhase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[id] = domain.CallState{Partner: partner, Phase: phase}
	log.Debug().Str("module", "app.calls").Str("identifier", string(id)).Str("partner", string(partner)).Stringer("phase", phase).Msg("call state updated")
}

// ClearState removes and returns the record for id.
func (t *CallTracker) ClearState(id domain.Identifier) (domain.CallState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clearLocked(id)
}

// ClearIfPartner removes id's record only when it names partner. A record
// pointing at someone else belongs to another call and is left alone.
func (t *CallTracker) ClearIfPartner(id, partner domain.Identifier) (domain.CallState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.calls[id]
	if !ok || rec.Partner != partner {
		return domain.CallState{}, false
	}
	return t.clearLocked(id)
}

func (t *CallTracker) clearLocked(id domain.Identifier) (domain.CallState, bool) {
	rec, ok := t.calls[id]
	if !ok {
		return domain.CallState{}, false
	}
	delete(t.calls, id)
	log.Debug().Str("module", "app.calls").Str("identifier", string(id)).Str("partner", string(rec.Partner)).Msg("call state removed")
	return rec, true
}

func (t *CallTracker) State(id domain.Identifier) (domain.CallState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.calls[id]
	return rec, ok
}

func (t *CallTracker) GetPartner(id domain.Identifier) (domain.Identifier, bool) {
	rec, ok := t.State(id)
	return rec.Partner, ok
}

func (t *CallTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// NotifyDisconnect tears down the call gone was part of. notify is invoked
// with the partner unless the partner has since moved on to a different
// call; it is expected to resolve the partner's connection and deliver the
// notice if that connection is still live. Returns false when gone had no
// call record.
func (t *CallTracker) NotifyDisconnect(gone domain.Identifier, notify func(partner domain.Identifier)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.calls[gone]
	if !ok {
		return false
	}
	partner := rec.Partner
	partnerRec, partnerOK := t.calls[partner]
	if !partnerOK || partnerRec.Partner == gone {
		if notify != nil {
			notify(partner)
		}
		if partnerOK {
			t.clearLocked(partner)
		}
	}
	t.clearLocked(gone)
	return true
}
