// Package orch coordinates the identity registry and call tracker on behalf
// of the transport adapters: it routes signaling between identifiers, reacts
// to connections opening and closing, and publishes presence.
package orch

import (
	"errors"
	"sync"

	"github.com/dkeye/duocall/internal/app"
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/metrics"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the only writer of Registry and Calls. Every handler runs
// under mu so multi-step sequences (claim-if-absent, release-and-notify,
// busy-check-and-set) are atomic with respect to each other. Deliveries made
// while holding mu never block: connections only enqueue.
type Orchestrator struct {
	Registry *app.Registry
	Calls    *app.CallTracker
	Policy   app.Policy
	Metrics  *metrics.Metrics
	Rules    domain.IdentifierRules

	mu sync.Mutex
}

func (o *Orchestrator) deliver(sid core.SessionID, conn core.SignalConnection, v any) bool {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode outbound")
		return false
	}
	if err := conn.TrySend(frame); err != nil {
		o.onSendFailure(sid, err)
		return false
	}
	return true
}

func (o *Orchestrator) onSendFailure(sid core.SessionID, err error) {
	if !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("send to closed connection")
		return
	}
	o.Metrics.Failure(metrics.FailureBackpressure)
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(sid) {
	case app.KickConnection:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicking slow connection")
		o.Registry.Cancel(sid)
	case app.DropMessage, app.NoAction:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("dropped message for slow connection")
	}
}

func (o *Orchestrator) syncGauges() {
	_, identities := o.Registry.Counts()
	o.Metrics.SetIdentities(identities)
	o.Metrics.SetCallRecords(o.Calls.Len())
}
