package ice

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ProviderStatic       = "static"
	ProviderTwilio       = "twilio"
	ProviderSharedSecret = "shared_secret"
	ProviderHTTP         = "http"
)

// Options selects and configures a provider.
type Options struct {
	Provider   string
	CacheTTL   time.Duration
	ICEServers string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioTTL        int

	SharedSecret SharedSecretOptions
	HTTP         HTTPOptions
}

// New builds the configured provider, wrapped in a cache.
func New(o Options) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch o.Provider {
	case "", ProviderStatic:
		p, err = NewStaticProviderJSON(o.ICEServers)
	case ProviderTwilio:
		p, err = NewTwilioProvider(o.TwilioAccountSID, o.TwilioAuthToken, o.TwilioTTL)
	case ProviderSharedSecret:
		p, err = NewSharedSecretProvider(o.SharedSecret)
	case ProviderHTTP:
		p, err = NewHTTPProvider(o.HTTP)
	default:
		return nil, fmt.Errorf("unknown turn provider %q", o.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("turn provider %s: %w", o.Provider, err)
	}
	log.Info().Str("module", "ice").Str("provider", o.Provider).Dur("cache_ttl", o.CacheTTL).Msg("ice provider ready")
	return NewCachedProvider(p, o.CacheTTL), nil
}
