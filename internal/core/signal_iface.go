package core

import "errors"

// Frame is a raw encoded signaling message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues f without blocking.
	TrySend(Frame) error
	Close()
}

var (
	// ErrBackpressure is returned by TrySend when the outbound buffer is full.
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)
