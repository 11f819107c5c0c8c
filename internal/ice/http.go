package ice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPProvider asks an upstream credentials service for a JSON server list.
type HTTPProvider struct {
	client *resty.Client
	url    string
}

type HTTPOptions struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func NewHTTPProvider(o HTTPOptions) (*HTTPProvider, error) {
	if o.URL == "" {
		return nil, errors.New("upstream url is required")
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	c := resty.New().
		SetTimeout(o.Timeout).
		SetHeader("Accept", "application/json")
	if o.Token != "" {
		c.SetAuthToken(o.Token)
	}
	return &HTTPProvider{client: c, url: o.URL}, nil
}

func (p *HTTPProvider) ICEServers(ctx context.Context) ([]Server, error) {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: upstream status %d", ErrUpstream, resp.StatusCode())
	}
	servers, err := ParseServersJSON(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return FromWebRTC(servers), nil
}
