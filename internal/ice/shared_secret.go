package ice

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// SharedSecretProvider mints coturn-compatible TURN REST credentials:
//
//	username   = <unix_expiry>:<prefix>:<random>
//	credential = base64(hmac_sha1(secret, username))
type SharedSecretProvider struct {
	secret []byte
	ttl    time.Duration
	prefix string
	urls   []string
	clock  clock.Clock
}

type SharedSecretOptions struct {
	Secret string
	TTL    time.Duration
	Prefix string
	URLs   []string
	Clock  clock.Clock
}

func NewSharedSecretProvider(o SharedSecretOptions) (*SharedSecretProvider, error) {
	if o.Secret == "" {
		return nil, errors.New("shared secret is required")
	}
	if o.TTL <= 0 {
		return nil, errors.New("ttl must be > 0")
	}
	if o.Prefix == "" {
		o.Prefix = "duocall"
	}
	if strings.Contains(o.Prefix, ":") {
		return nil, errors.New("prefix must not contain ':'")
	}
	if len(o.URLs) == 0 {
		return nil, errors.New("at least one url is required")
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return &SharedSecretProvider{
		secret: []byte(o.Secret),
		ttl:    o.TTL,
		prefix: o.Prefix,
		urls:   append([]string(nil), o.URLs...),
		clock:  o.Clock,
	}, nil
}

func (p *SharedSecretProvider) ICEServers(context.Context) ([]Server, error) {
	expiry := p.clock.Now().UTC().Add(p.ttl).Unix()
	username := fmt.Sprintf("%d:%s:%s", expiry, p.prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
	return []Server{{
		URLs:       append([]string(nil), p.urls...),
		Username:   username,
		Credential: sign(p.secret, username),
	}}, nil
}

func sign(secret []byte, username string) string {
	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write([]byte(username))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
