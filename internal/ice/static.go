package ice

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// StaticProvider serves a fixed list from configuration.
type StaticProvider struct {
	servers []Server
}

func NewStaticProvider(servers []webrtc.ICEServer) (*StaticProvider, error) {
	for _, s := range servers {
		if err := Validate(s); err != nil {
			return nil, err
		}
	}
	return &StaticProvider{servers: FromWebRTC(servers)}, nil
}

// NewStaticProviderJSON builds a StaticProvider from a JSON server list.
func NewStaticProviderJSON(raw string) (*StaticProvider, error) {
	if raw == "" {
		return &StaticProvider{servers: []Server{}}, nil
	}
	servers, err := ParseServersJSON([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &StaticProvider{servers: FromWebRTC(servers)}, nil
}

func (p *StaticProvider) ICEServers(context.Context) ([]Server, error) {
	out := make([]Server, len(p.servers))
	copy(out, p.servers)
	return out, nil
}
