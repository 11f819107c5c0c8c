package ice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TokenCreator is the slice of the Twilio API used here; *openapi.ApiService satisfies it.
type TokenCreator interface {
	CreateToken(params *openapi.CreateTokenParams) (*openapi.ApiV2010Token, error)
}

// TwilioProvider fetches short-lived Network Traversal Service tokens.
type TwilioProvider struct {
	api TokenCreator
	ttl int
}

func NewTwilioProvider(accountSID, authToken string, ttlSeconds int) (*TwilioProvider, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewTwilioProviderWithAPI(client.Api, ttlSeconds), nil
}

func NewTwilioProviderWithAPI(api TokenCreator, ttlSeconds int) *TwilioProvider {
	return &TwilioProvider{api: api, ttl: ttlSeconds}
}

func (p *TwilioProvider) ICEServers(ctx context.Context) ([]Server, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &openapi.CreateTokenParams{}
	if p.ttl > 0 {
		params.SetTtl(p.ttl)
	}
	tok, err := p.api.CreateToken(params)
	if err != nil {
		return nil, fmt.Errorf("%w: twilio: %v", ErrUpstream, err)
	}
	if tok == nil || tok.IceServers == nil {
		return []Server{}, nil
	}

	out := make([]Server, 0, len(*tok.IceServers))
	for _, s := range *tok.IceServers {
		u := strings.TrimSpace(s.Urls)
		if u == "" {
			u = strings.TrimSpace(s.Url)
		}
		if u == "" {
			continue
		}
		out = append(out, Server{
			URLs:       []string{u},
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out, nil
}
