package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownKind = errors.New("unknown message kind")
	ErrBadPayload  = errors.New("bad payload")
)

type ClaimIdentity struct {
	Identifier string `json:"identifier" validate:"required"`
}

type Invite struct {
	To    string          `json:"toIdentifier" validate:"required"`
	Offer json.RawMessage `json:"offer" validate:"payload"`
}

type Answer struct {
	To     string          `json:"toIdentifier" validate:"required"`
	Answer json.RawMessage `json:"answer" validate:"payload"`
}

type ICECandidate struct {
	To        string          `json:"toIdentifier" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"payload"`
}

type End struct {
	To string `json:"toIdentifier" validate:"required"`
}

type Reject struct {
	To     string `json:"toIdentifier" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

type Ping struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Opaque SDP/ICE payloads only need to be present.
	_ = v.RegisterValidation("payload", func(fl validator.FieldLevel) bool {
		raw := bytes.TrimSpace(fl.Field().Bytes())
		return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
	})
	return v
}

// Decode parses one inbound frame. It returns the message kind together with
// a pointer to the matching struct above. The kind is returned even when the
// payload fails validation so callers can log it.
func Decode(data []byte) (string, any, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var msg any
	switch env.Type {
	case KindClaimIdentity:
		msg = &ClaimIdentity{}
	case KindInvite:
		msg = &Invite{}
	case KindAnswer:
		msg = &Answer{}
	case KindICECandidate:
		msg = &ICECandidate{}
	case KindEnd:
		msg = &End{}
	case KindReject:
		msg = &Reject{}
	case KindPing:
		return env.Type, &Ping{}, nil
	default:
		return env.Type, nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return env.Type, nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := validate.Struct(msg); err != nil {
		return env.Type, nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return env.Type, msg, nil
}
