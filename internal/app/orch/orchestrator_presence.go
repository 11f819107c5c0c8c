package orch

import (
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
)

// Broadcast sends the full identifier list to every live connection.
func (o *Orchestrator) Broadcast() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcastLocked()
}

func (o *Orchestrator) broadcastLocked() {
	o.announceLocked("", protocol.NewIdentifierList(o.Registry.List()))
}

// announceLocked sends v to every connection except skip.
func (o *Orchestrator) announceLocked(skip core.SessionID, v any) {
	for _, snap := range o.Registry.Connections() {
		if snap.SID == skip {
			continue
		}
		o.deliver(snap.SID, snap.Conn, v)
	}
}

// Identifiers is a read-only presence snapshot.
func (o *Orchestrator) Identifiers() []domain.Identifier {
	return o.Registry.List()
}
