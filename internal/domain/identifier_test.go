package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentifier(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"alice", nil},
		{"a_1-B", nil},
		{"a1", nil},
		{"x", nil},
		{"", ErrIdentifierTooShort},
		{"bad id", ErrIdentifierInvalid},
		{"émile", ErrIdentifierInvalid},
		{"a.b.c", ErrIdentifierInvalid},
		{strings.Repeat("x", DefaultMaxIdentifierLen+1), ErrIdentifierTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			id, err := NewIdentifier(tc.raw)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				assert.Empty(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Identifier(tc.raw), id)
		})
	}
}

func TestIdentifierRulesBounds(t *testing.T) {
	strict := IdentifierRules{MinLen: 3, MaxLen: 5}

	assert.ErrorIs(t, strict.Validate("ab"), ErrIdentifierTooShort)
	assert.ErrorContains(t, strict.Validate("ab"), "at least 3")
	assert.NoError(t, strict.Validate("abc"))
	assert.NoError(t, strict.Validate("abcde"))
	assert.ErrorIs(t, strict.Validate("abcdef"), ErrIdentifierTooLong)

	id, err := strict.New("a-1")
	require.NoError(t, err)
	assert.Equal(t, Identifier("a-1"), id)
}

func TestCallPhaseString(t *testing.T) {
	assert.Equal(t, "calling", PhaseCalling.String())
	assert.Equal(t, "active", PhaseActive.String())
	assert.Equal(t, "idle", CallPhase(0).String())
}
