package protocol

import (
	"encoding/json"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
)

type Header struct {
	Type string `json:"type"`
}

type IdentifierList struct {
	Header
	Identifiers []domain.Identifier `json:"identifiers"`
}

type IdentityClaimed struct {
	Header
	Identifier domain.Identifier `json:"identifier"`
}

type IdentityClaimRejected struct {
	Header
	Reason string `json:"reason"`
}

type IncomingInvite struct {
	Header
	Offer json.RawMessage   `json:"offer"`
	From  domain.Identifier `json:"fromIdentifier"`
}

type InviteAnswered struct {
	Header
	Answer json.RawMessage   `json:"answer"`
	From   domain.Identifier `json:"fromIdentifier"`
}

type RelayedCandidate struct {
	Header
	Candidate json.RawMessage   `json:"candidate"`
	From      domain.Identifier `json:"fromIdentifier"`
}

type CallEnded struct {
	Header
	From domain.Identifier `json:"fromIdentifier"`
}

type CallRejected struct {
	Header
	From   domain.Identifier `json:"fromIdentifier"`
	Reason domain.EndReason  `json:"reason"`
}

type CallTargetNotFound struct {
	Header
	Message string `json:"message"`
}

type PartnerDisconnected struct {
	Header
	From    domain.Identifier `json:"fromIdentifier"`
	Message string            `json:"message"`
}

// PeerPresence is used for both peerConnected and peerDisconnected.
type PeerPresence struct {
	Header
	Identifier domain.Identifier `json:"identifier"`
	Message    string            `json:"message"`
}

type Pong struct {
	Header
}

type Error struct {
	Header
	Error string `json:"error"`
}

func NewIdentifierList(ids []domain.Identifier) IdentifierList {
	if ids == nil {
		ids = []domain.Identifier{}
	}
	return IdentifierList{Header{KindIdentifierList}, ids}
}

func NewIdentityClaimed(id domain.Identifier) IdentityClaimed {
	return IdentityClaimed{Header{KindIdentityClaimed}, id}
}

func NewIdentityClaimRejected(reason string) IdentityClaimRejected {
	return IdentityClaimRejected{Header{KindIdentityClaimRejected}, reason}
}

func NewIncomingInvite(offer json.RawMessage, from domain.Identifier) IncomingInvite {
	return IncomingInvite{Header{KindIncomingInvite}, offer, from}
}

func NewInviteAnswered(answer json.RawMessage, from domain.Identifier) InviteAnswered {
	return InviteAnswered{Header{KindInviteAnswered}, answer, from}
}

func NewRelayedCandidate(candidate json.RawMessage, from domain.Identifier) RelayedCandidate {
	return RelayedCandidate{Header{KindICECandidate}, candidate, from}
}

func NewCallEnded(from domain.Identifier) CallEnded {
	return CallEnded{Header{KindCallEnded}, from}
}

func NewCallRejected(from domain.Identifier, reason domain.EndReason) CallRejected {
	return CallRejected{Header{KindCallRejected}, from, reason}
}

func NewCallTargetNotFound(message string) CallTargetNotFound {
	return CallTargetNotFound{Header{KindCallTargetNotFound}, message}
}

func NewPartnerDisconnected(from domain.Identifier) PartnerDisconnected {
	return PartnerDisconnected{Header{KindPartnerDisconnected}, from, string(from) + " disconnected during the call"}
}

func NewPeerConnected(id domain.Identifier) PeerPresence {
	return PeerPresence{Header{KindPeerConnected}, id, string(id) + " connected"}
}

func NewPeerDisconnected(id domain.Identifier) PeerPresence {
	return PeerPresence{Header{KindPeerDisconnected}, id, string(id) + " disconnected"}
}

func NewPong() Pong { return Pong{Header{KindPong}} }

func NewError(msg string) Error { return Error{Header{KindError}, msg} }

// Encode marshals an outbound message into a frame.
func Encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
