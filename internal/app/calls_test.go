package app

import (
	"testing"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallTrackerLifecycle(t *testing.T) {
	ct := NewCallTracker()
	ct.SetState("a", "b", domain.PhaseCalling)
	ct.SetState("b", "a", domain.PhaseCalling)

	p, ok := ct.GetPartner("a")
	require.True(t, ok)
	assert.Equal(t, domain.Identifier("b"), p)

	ct.SetState("a", "b", domain.PhaseActive)
	rec, ok := ct.State("a")
	require.True(t, ok)
	assert.Equal(t, domain.PhaseActive, rec.Phase)

	prev, ok := ct.ClearState("a")
	require.True(t, ok)
	assert.Equal(t, domain.CallState{Partner: "b", Phase: domain.PhaseActive}, prev)

	_, ok = ct.ClearState("a")
	assert.False(t, ok)
	assert.Equal(t, 1, ct.Len())
}

func TestCallTrackerClearIfPartner(t *testing.T) {
	ct := NewCallTracker()
	ct.SetState("b", "c", domain.PhaseActive)

	_, ok := ct.ClearIfPartner("b", "a")
	assert.False(t, ok)
	_, ok = ct.State("b")
	assert.True(t, ok)

	_, ok = ct.ClearIfPartner("b", "c")
	assert.True(t, ok)
	assert.Zero(t, ct.Len())
}

func TestNotifyDisconnectClearsBothSides(t *testing.T) {
	ct := NewCallTracker()
	ct.SetState("a", "b", domain.PhaseActive)
	ct.SetState("b", "a", domain.PhaseActive)

	var notified []domain.Identifier
	assert.True(t, ct.NotifyDisconnect("a", func(p domain.Identifier) { notified = append(notified, p) }))
	assert.Equal(t, []domain.Identifier{"b"}, notified)
	assert.Zero(t, ct.Len())
}

func TestNotifyDisconnectOneSidedRecord(t *testing.T) {
	ct := NewCallTracker()
	ct.SetState("a", "b", domain.PhaseCalling)

	var notified []domain.Identifier
	assert.True(t, ct.NotifyDisconnect("a", func(p domain.Identifier) { notified = append(notified, p) }))
	assert.Equal(t, []domain.Identifier{"b"}, notified)
	assert.Zero(t, ct.Len())
}

func TestNotifyDisconnectPartnerMovedOn(t *testing.T) {
	ct := NewCallTracker()
	ct.SetState("a", "b", domain.PhaseActive)
	ct.SetState("b", "c", domain.PhaseActive)

	called := false
	assert.True(t, ct.NotifyDisconnect("a", func(domain.Identifier) { called = true }))
	assert.False(t, called)

	rec, ok := ct.State("b")
	require.True(t, ok)
	assert.Equal(t, domain.Identifier("c"), rec.Partner)
	_, ok = ct.State("a")
	assert.False(t, ok)
}

func TestNotifyDisconnectWithoutCall(t *testing.T) {
	ct := NewCallTracker()
	assert.False(t, ct.NotifyDisconnect("a", func(domain.Identifier) { t.Fatal("unexpected notify") }))
}
