package orch

import (
	"encoding/json"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/metrics"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// sender resolves who is speaking on sid. Unidentified connections may not
// signal anyone.
func (o *Orchestrator) sender(sid core.SessionID) (domain.Identifier, core.SignalConnection, bool) {
	conn, ok := o.Registry.GetSession(sid)
	if !ok {
		return "", nil, false
	}
	from, ok := o.Registry.IdentifierOf(sid)
	if !ok {
		o.Metrics.Failure(metrics.FailureNotIdentified)
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("signaling from unidentified connection dropped")
		return "", nil, false
	}
	return from, conn, true
}

// Invite forwards an offer to the destination and marks both sides Calling.
// A destination already calling or talking with someone else gets no offer;
// the caller receives callRejected with reason busy instead.
func (o *Orchestrator) Invite(sid core.SessionID, to string, offer json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, conn, ok := o.sender(sid)
	if !ok {
		return domain.ErrNotIdentified
	}
	dest := domain.Identifier(to)
	if dest == from {
		o.deliver(sid, conn, protocol.NewCallTargetNotFound("cannot call yourself"))
		return domain.ErrUnresolvableDestination
	}
	dconn, dsid, ok := o.Registry.Resolve(dest)
	if !ok {
		o.Metrics.Failure(metrics.FailureUnresolvable)
		o.deliver(sid, conn, protocol.NewCallTargetNotFound("user not found"))
		return domain.ErrUnresolvableDestination
	}

	phase := domain.PhaseCalling
	if rec, inCall := o.Calls.State(dest); inCall {
		switch {
		case rec.Partner == from:
			// Renegotiation inside an answered call keeps it answered.
			phase = rec.Phase
		case o.staleLocked(dest, rec):
			log.Info().Str("module", "orch").Str("identifier", string(dest)).Str("partner", string(rec.Partner)).Msg("stale call record cleared")
			o.Calls.ClearIfPartner(dest, rec.Partner)
		default:
			o.Metrics.Failure(metrics.FailureBusy)
			log.Info().Str("module", "orch").Str("from", string(from)).Str("to", string(dest)).Str("partner", string(rec.Partner)).Msg("invite rejected, destination busy")
			o.deliver(sid, conn, protocol.NewCallRejected(dest, domain.ReasonBusy))
			return domain.ErrBusy
		}
	}
	o.abandonLocked(from, dest)

	o.Calls.SetState(from, dest, phase)
	o.Calls.SetState(dest, from, phase)
	o.syncGauges()

	log.Info().Str("module", "orch").Str("from", string(from)).Str("to", string(dest)).Msg("invite")
	o.deliver(dsid, dconn, protocol.NewIncomingInvite(offer, from))
	return nil
}

// Answer forwards the callee's answer to the caller and marks both sides Active.
func (o *Orchestrator) Answer(sid core.SessionID, to string, answer json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, conn, ok := o.sender(sid)
	if !ok {
		return domain.ErrNotIdentified
	}
	dest := domain.Identifier(to)
	dconn, dsid, ok := o.Registry.Resolve(dest)
	if !ok {
		o.Metrics.Failure(metrics.FailureUnresolvable)
		o.deliver(sid, conn, protocol.NewCallTargetNotFound("caller not found"))
		return domain.ErrUnresolvableDestination
	}

	o.Calls.SetState(from, dest, domain.PhaseActive)
	o.Calls.SetState(dest, from, domain.PhaseActive)
	o.syncGauges()

	log.Info().Str("module", "orch").Str("from", string(from)).Str("to", string(dest)).Msg("answer")
	o.deliver(dsid, dconn, protocol.NewInviteAnswered(answer, from))
	return nil
}

// ICECandidate relays a candidate. Unknown destinations are dropped silently.
func (o *Orchestrator) ICECandidate(sid core.SessionID, to string, candidate json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, _, ok := o.sender(sid)
	if !ok {
		return domain.ErrNotIdentified
	}
	dconn, dsid, ok := o.Registry.Resolve(domain.Identifier(to))
	if !ok {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", to).Msg("candidate for unknown destination dropped")
		return domain.ErrUnresolvableDestination
	}
	o.deliver(dsid, dconn, protocol.NewRelayedCandidate(candidate, from))
	return nil
}

// End hangs up. The destination is told only if a call between the two was
// still on record, so repeated ends produce a single notice.
func (o *Orchestrator) End(sid core.SessionID, to string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, _, ok := o.sender(sid)
	if !ok {
		return domain.ErrNotIdentified
	}
	dest := domain.Identifier(to)
	_, hadOwn := o.Calls.ClearIfPartner(from, dest)
	_, hadDest := o.Calls.ClearIfPartner(dest, from)
	o.syncGauges()
	if !hadOwn && !hadDest {
		return nil
	}

	log.Info().Str("module", "orch").Str("from", string(from)).Str("to", string(dest)).Msg("call ended")
	if dconn, dsid, ok := o.Registry.Resolve(dest); ok {
		o.deliver(dsid, dconn, protocol.NewCallEnded(from))
	}
	return nil
}

// Reject declines an invite. The sender's record is cleared even when the
// destination is gone; the notice to an unknown destination is dropped.
func (o *Orchestrator) Reject(sid core.SessionID, to string, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, _, ok := o.sender(sid)
	if !ok {
		return domain.ErrNotIdentified
	}
	dest := domain.Identifier(to)
	o.Calls.ClearIfPartner(from, dest)
	o.Calls.ClearIfPartner(dest, from)
	o.syncGauges()

	dconn, dsid, ok := o.Registry.Resolve(dest)
	if !ok {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", to).Msg("reject for unknown destination dropped")
		return domain.ErrUnresolvableDestination
	}

	r := domain.EndReason(reason)
	if r == "" {
		r = domain.ReasonRejected
	}
	log.Info().Str("module", "orch").Str("from", string(from)).Str("to", string(dest)).Str("reason", string(r)).Msg("call rejected")
	o.deliver(dsid, dconn, protocol.NewCallRejected(from, r))
	return nil
}

// staleLocked reports whether id's record points at a partner that no longer
// resolves or that has no matching record of its own.
func (o *Orchestrator) staleLocked(id domain.Identifier, rec domain.CallState) bool {
	if _, _, ok := o.Registry.Resolve(rec.Partner); !ok {
		return true
	}
	prec, ok := o.Calls.State(rec.Partner)
	return !ok || prec.Partner != id
}

// abandonLocked drops the call from was part of when it invites someone new.
// The previous partner is told the call ended if its record still named from.
func (o *Orchestrator) abandonLocked(from, dest domain.Identifier) {
	rec, ok := o.Calls.State(from)
	if !ok || rec.Partner == dest {
		return
	}
	if _, had := o.Calls.ClearIfPartner(rec.Partner, from); !had {
		return
	}
	log.Info().Str("module", "orch").Str("from", string(from)).Str("partner", string(rec.Partner)).Msg("previous call abandoned")
	if pconn, psid, ok := o.Registry.Resolve(rec.Partner); ok {
		o.deliver(psid, pconn, protocol.NewCallEnded(from))
	}
}
