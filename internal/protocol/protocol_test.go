package protocol

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInvite(t *testing.T) {
	kind, msg, err := Decode([]byte(`{"type":"invite","toIdentifier":"b1","offer":{"type":"offer","sdp":"X"}}`))
	require.NoError(t, err)
	assert.Equal(t, KindInvite, kind)

	inv, ok := msg.(*Invite)
	require.True(t, ok)
	assert.Equal(t, "b1", inv.To)
	assert.JSONEq(t, `{"type":"offer","sdp":"X"}`, string(inv.Offer))
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"invite without offer":    `{"type":"invite","toIdentifier":"b1"}`,
		"invite with null offer":  `{"type":"invite","toIdentifier":"b1","offer":null}`,
		"answer without target":   `{"type":"answer","answer":{"sdp":"Y"}}`,
		"candidate without body":  `{"type":"iceCandidate","toIdentifier":"b1"}`,
		"claim without id":        `{"type":"claimIdentity"}`,
		"end with wrong type":     `{"type":"end","toIdentifier":42}`,
		"reject without target":   `{"type":"reject","reason":"busy"}`,
		"envelope is not json":    `not json`,
		"envelope is a json list": `[1,2]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, msg, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrBadPayload)
			assert.Nil(t, msg)
		})
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	kind, msg, err := Decode([]byte(`{"type":"dance"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "dance", kind)
	assert.Nil(t, msg)
}

func TestDecodeRejectReasonOptional(t *testing.T) {
	_, msg, err := Decode([]byte(`{"type":"reject","toIdentifier":"a1"}`))
	require.NoError(t, err)
	assert.Equal(t, &Reject{To: "a1"}, msg)
}

func TestEncodeFlattensHeader(t *testing.T) {
	frame, err := Encode(NewIncomingInvite(json.RawMessage(`{"type":"offer","sdp":"X"}`), "a1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"incomingInvite","offer":{"type":"offer","sdp":"X"},"fromIdentifier":"a1"}`, string(frame))

	frame, err = Encode(NewIdentifierList(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"identifierList","identifiers":[]}`, string(frame))

	frame, err = Encode(NewCallRejected("b1", domain.ReasonBusy))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"callRejected","fromIdentifier":"b1","reason":"busy"}`, string(frame))
}
