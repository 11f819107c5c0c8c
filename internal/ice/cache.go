package ice

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKey     = "servers"
	fetchTimeout = 10 * time.Second
)

// CachedProvider memoizes a provider's answer for ttl and collapses
// concurrent misses into one upstream call. The shared call runs on its own
// deadline; each caller waits only as long as its own context allows.
type CachedProvider struct {
	next    Provider
	cache   *expirable.LRU[string, []Server]
	group   singleflight.Group
	timeout time.Duration
}

// NewCachedProvider wraps next; a non-positive ttl returns next unchanged.
func NewCachedProvider(next Provider, ttl time.Duration) Provider {
	if ttl <= 0 {
		return next
	}
	return &CachedProvider{
		next:    next,
		cache:   expirable.NewLRU[string, []Server](1, nil, ttl),
		timeout: fetchTimeout,
	}
}

func (p *CachedProvider) ICEServers(ctx context.Context) ([]Server, error) {
	if s, ok := p.cache.Get(cacheKey); ok {
		return s, nil
	}
	ch := p.group.DoChan(cacheKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		s, err := p.next.ICEServers(fctx)
		if err != nil {
			return nil, err
		}
		p.cache.Add(cacheKey, s)
		log.Debug().Str("module", "ice").Int("servers", len(s)).Msg("credentials refreshed")
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Server), nil
	}
}
