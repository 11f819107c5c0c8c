package signal

import (
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/metrics"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleClaim(
	sid core.SessionID,
	conn *WsSignalConn,
	p *protocol.ClaimIdentity,
) {
	if !ctl.opts.Limiter.Allow(sid) {
		ctl.Orch.Metrics.Failure(metrics.FailureRateLimited)
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("claim rate limited")
		ctl.sendJSON(conn, protocol.NewIdentityClaimRejected("rate limited"))
		return
	}
	if err := ctl.Orch.Claim(sid, p.Identifier); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("identifier", p.Identifier).Msg("claim failed")
	}
}
