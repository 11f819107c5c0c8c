// Package domain contains entities without transport logic, just meta-data
package domain

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	DefaultMinIdentifierLen = 1
	DefaultMaxIdentifierLen = 64
)

var (
	ErrIdentifierTooShort = errors.New("identifier too short")
	ErrIdentifierTooLong  = errors.New("identifier too long")
	ErrIdentifierInvalid  = errors.New("identifier may only contain letters, digits, '_' and '-'")
	ErrIdentifierConflict = errors.New("identifier already in use")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Identifier is the name a client picks for itself for the lifetime of one connection.
type Identifier string

// IdentifierRules bounds identifier length. Zero fields fall back to the defaults.
type IdentifierRules struct {
	MinLen int
	MaxLen int
}

func (r IdentifierRules) bounds() (int, int) {
	lo, hi := r.MinLen, r.MaxLen
	if lo <= 0 {
		lo = DefaultMinIdentifierLen
	}
	if hi <= 0 {
		hi = DefaultMaxIdentifierLen
	}
	return lo, hi
}

// Validate checks raw against the length bounds and the charset.
func (r IdentifierRules) Validate(raw string) error {
	lo, hi := r.bounds()
	if len(raw) < lo {
		return fmt.Errorf("%w: at least %d characters", ErrIdentifierTooShort, lo)
	}
	if len(raw) > hi {
		return fmt.Errorf("%w: at most %d characters", ErrIdentifierTooLong, hi)
	}
	if !identifierPattern.MatchString(raw) {
		return ErrIdentifierInvalid
	}
	return nil
}

// New validates raw and converts it.
func (r IdentifierRules) New(raw string) (Identifier, error) {
	if err := r.Validate(raw); err != nil {
		return "", err
	}
	return Identifier(raw), nil
}

// NewIdentifier validates raw with the default rules.
func NewIdentifier(raw string) (Identifier, error) {
	return IdentifierRules{}.New(raw)
}

func ValidateIdentifier(raw string) error {
	return IdentifierRules{}.Validate(raw)
}

func (id Identifier) String() string { return string(id) }
