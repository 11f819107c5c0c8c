package core

// SessionID names one live transport connection. It is assigned by the
// adapter on upgrade and never reused.
type SessionID string
