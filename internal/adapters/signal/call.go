package signal

import (
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Routing failures are reported to the client by the orchestrator; here they
// are only logged.
func logRouteErr(kind string, sid core.SessionID, err error) {
	if err == nil {
		return
	}
	log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", kind).Msg("signal not delivered")
}

func (ctl *SignalWSController) handleInvite(sid core.SessionID, p *protocol.Invite) {
	logRouteErr(protocol.KindInvite, sid, ctl.Orch.Invite(sid, p.To, p.Offer))
}

func (ctl *SignalWSController) handleAnswer(sid core.SessionID, p *protocol.Answer) {
	logRouteErr(protocol.KindAnswer, sid, ctl.Orch.Answer(sid, p.To, p.Answer))
}

func (ctl *SignalWSController) handleCandidate(sid core.SessionID, p *protocol.ICECandidate) {
	logRouteErr(protocol.KindICECandidate, sid, ctl.Orch.ICECandidate(sid, p.To, p.Candidate))
}

func (ctl *SignalWSController) handleEnd(sid core.SessionID, p *protocol.End) {
	logRouteErr(protocol.KindEnd, sid, ctl.Orch.End(sid, p.To))
}

func (ctl *SignalWSController) handleReject(sid core.SessionID, p *protocol.Reject) {
	logRouteErr(protocol.KindReject, sid, ctl.Orch.Reject(sid, p.To, p.Reason))
}
