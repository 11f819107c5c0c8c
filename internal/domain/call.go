package domain

import "errors"

var (
	ErrNotIdentified           = errors.New("connection has no identifier")
	ErrUnresolvableDestination = errors.New("destination not connected")
	ErrBusy                    = errors.New("destination busy")
)

type CallPhase int

const (
	PhaseCalling CallPhase = iota + 1
	PhaseActive
)

func (p CallPhase) String() string {
	switch p {
	case PhaseCalling:
		return "calling"
	case PhaseActive:
		return "active"
	default:
		return "idle"
	}
}

// CallState is the per-identifier record of an invite in flight or an answered call.
// Absence of a record means Idle.
type CallState struct {
	Partner Identifier
	Phase   CallPhase
}

// EndReason is what a client is told about why a call stopped.
type EndReason string

const (
	ReasonRejected EndReason = "rejected"
	ReasonBusy     EndReason = "busy"
)
