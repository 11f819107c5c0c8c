package ice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// ErrUpstream wraps every failure to obtain servers from a remote provider.
var ErrUpstream = errors.New("ice: upstream failure")

// Server is one entry of the credentials response, shaped like RTCIceServer.
type Server struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Provider yields the ICE servers handed to browsers before they dial.
type Provider interface {
	ICEServers(ctx context.Context) ([]Server, error)
}

type serverJSON struct {
	URLs       stringOrSlice `json:"urls"`
	Username   string        `json:"username,omitempty"`
	Credential string        `json:"credential,omitempty"`
}

type stringOrSlice []string

func (s *stringOrSlice) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// ParseServersJSON parses a JSON array of RTCIceServer-like objects where
// "urls" may be a string or a list of strings.
func ParseServersJSON(raw []byte) ([]webrtc.ICEServer, error) {
	var servers []serverJSON
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, err
	}

	out := make([]webrtc.ICEServer, 0, len(servers))
	for i, s := range servers {
		urls := make([]string, 0, len(s.URLs))
		for _, u := range s.URLs {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		srv := webrtc.ICEServer{
			URLs:     urls,
			Username: strings.TrimSpace(s.Username),
		}
		if strings.TrimSpace(s.Credential) != "" {
			srv.Credential = s.Credential
		}
		if err := Validate(srv); err != nil {
			return nil, fmt.Errorf("iceServers[%d]: %w", i, err)
		}
		out = append(out, srv)
	}
	return out, nil
}

// Validate checks URL schemes and that TURN entries carry credentials.
func Validate(s webrtc.ICEServer) error {
	if len(s.URLs) == 0 {
		return errors.New("missing urls")
	}

	needsCreds := false
	for _, raw := range s.URLs {
		u := strings.TrimSpace(raw)
		if u == "" {
			return errors.New("urls must not contain empty entries")
		}
		switch {
		case strings.HasPrefix(u, "stun:"), strings.HasPrefix(u, "stuns:"):
		case strings.HasPrefix(u, "turn:"), strings.HasPrefix(u, "turns:"):
			needsCreds = true
		default:
			return fmt.Errorf("unsupported url scheme: %q", u)
		}
	}

	if needsCreds {
		if strings.TrimSpace(s.Username) == "" {
			return errors.New("turn urls require username")
		}
		cred, ok := s.Credential.(string)
		if !ok || strings.TrimSpace(cred) == "" {
			return errors.New("turn urls require credential")
		}
	}
	return nil
}

// FromWebRTC converts pion servers to the wire shape.
func FromWebRTC(in []webrtc.ICEServer) []Server {
	out := make([]Server, 0, len(in))
	for _, s := range in {
		srv := Server{
			URLs:     append([]string(nil), s.URLs...),
			Username: s.Username,
		}
		if cred, ok := s.Credential.(string); ok {
			srv.Credential = cred
		}
		out = append(out, srv)
	}
	return out
}
