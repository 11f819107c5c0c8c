package orch

import (
	"context"
	"errors"

	"github.com/dkeye/duocall/internal/app"
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/metrics"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// OnConnect registers a freshly upgraded connection and seeds it with the
// current identifier list. Nobody else is told: an anonymous connection is
// not a presence change.
func (o *Orchestrator) OnConnect(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Registry.BindSignal(sid, conn, cancel)
	o.Metrics.ConnectionOpened()
	o.deliver(sid, conn, protocol.NewIdentifierList(o.Registry.List()))
}

// OnDisconnect releases whatever sid owned. If it had an identifier, a call
// partner is told and everyone gets the new presence.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, known := o.Registry.GetSession(sid); !known {
		return
	}
	o.Metrics.ConnectionClosed()

	id, freed := o.Registry.Unbind(sid)
	if !freed {
		o.syncGauges()
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("identifier", string(id)).Msg("identifier released on close")
	o.departLocked(id)
	o.broadcastLocked()
	o.syncGauges()
}

// Claim binds raw as sid's identifier.
func (o *Orchestrator) Claim(sid core.SessionID, raw string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	conn, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.ErrUnknownSession
	}

	id, err := o.Rules.New(raw)
	if err != nil {
		o.Metrics.Failure(metrics.FailureInvalidIdentifier)
		o.deliver(sid, conn, protocol.NewIdentityClaimRejected(err.Error()))
		return err
	}

	res, err := o.Registry.Claim(sid, id)
	if err != nil {
		if errors.Is(err, domain.ErrIdentifierConflict) {
			o.Metrics.Failure(metrics.FailureIdentifierConflict)
			o.deliver(sid, conn, protocol.NewIdentityClaimRejected(err.Error()))
			log.Info().Str("module", "orch").Str("sid", string(sid)).Str("identifier", raw).Msg("identifier conflict")
		}
		return err
	}

	o.deliver(sid, conn, protocol.NewIdentityClaimed(id))
	if !res.Changed {
		return nil
	}
	if res.Previous != "" {
		o.departLocked(res.Previous)
	}
	o.broadcastLocked()
	o.announceLocked(sid, protocol.NewPeerConnected(id))
	o.syncGauges()
	return nil
}

// departLocked handles an identifier that just stopped resolving: its call
// partner, if any, is told, and the remaining connections get a leave notice.
func (o *Orchestrator) departLocked(id domain.Identifier) {
	o.Calls.NotifyDisconnect(id, func(partner domain.Identifier) {
		conn, psid, ok := o.Registry.Resolve(partner)
		if !ok {
			return
		}
		log.Info().Str("module", "orch").Str("identifier", string(id)).Str("partner", string(partner)).Msg("notifying partner of disconnect")
		o.deliver(psid, conn, protocol.NewPartnerDisconnected(id))
	})
	o.announceLocked("", protocol.NewPeerDisconnected(id))
}
