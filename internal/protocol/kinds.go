// Package protocol defines the JSON messages exchanged between clients and
// the relay. Every message is a flat object carrying a "type" tag.
package protocol

// Client -> relay.
const (
	KindClaimIdentity = "claimIdentity"
	KindInvite        = "invite"
	KindAnswer        = "answer"
	KindICECandidate  = "iceCandidate"
	KindEnd           = "end"
	KindReject        = "reject"
	KindPing          = "ping"
)

// Relay -> client. KindICECandidate is used in both directions.
const (
	KindIdentifierList        = "identifierList"
	KindIdentityClaimed       = "identityClaimed"
	KindIdentityClaimRejected = "identityClaimRejected"
	KindIncomingInvite        = "incomingInvite"
	KindInviteAnswered        = "inviteAnswered"
	KindCallEnded             = "callEnded"
	KindCallRejected          = "callRejected"
	KindCallTargetNotFound    = "callTargetNotFound"
	KindPartnerDisconnected   = "partnerDisconnected"
	KindPeerConnected         = "peerConnected"
	KindPeerDisconnected      = "peerDisconnected"
	KindPong                  = "pong"
	KindError                 = "error"
)
