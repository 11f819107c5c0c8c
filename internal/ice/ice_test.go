package ice

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestParseServersJSON(t *testing.T) {
	servers, err := ParseServersJSON([]byte(`[
		{"urls":"stun:stun.example.com:3478"},
		{"urls":["turn:turn.example.com:3478?transport=udp"," turns:turn.example.com:5349 "],"username":"u","credential":"p"}
	]`))
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:stun.example.com:3478"}, servers[0].URLs)
	assert.Equal(t, []string{"turn:turn.example.com:3478?transport=udp", "turns:turn.example.com:5349"}, servers[1].URLs)
	assert.Equal(t, "p", servers[1].Credential)
}

func TestParseServersJSONRejects(t *testing.T) {
	cases := map[string]string{
		"turn without creds": `[{"urls":"turn:turn.example.com"}]`,
		"bad scheme":         `[{"urls":"http://example.com"}]`,
		"no urls":            `[{"urls":[]}]`,
		"not json":           `{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseServersJSON([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider([]webrtc.ICEServer{{URLs: []string{"stun:a:3478"}}})
	require.NoError(t, err)
	servers, err := p.ICEServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Server{{URLs: []string{"stun:a:3478"}}}, servers)

	empty, err := NewStaticProviderJSON("")
	require.NoError(t, err)
	servers, err = empty.ICEServers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, servers)
	assert.Empty(t, servers)

	_, err = NewStaticProvider([]webrtc.ICEServer{{URLs: []string{"turn:a"}}})
	assert.Error(t, err)
}

func TestSharedSecretProvider(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	p, err := NewSharedSecretProvider(SharedSecretOptions{
		Secret: "s3cret",
		TTL:    time.Hour,
		Prefix: "duo",
		URLs:   []string{"turn:turn.example.com:3478"},
		Clock:  clk,
	})
	require.NoError(t, err)

	servers, err := p.ICEServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)

	parts := strings.Split(servers[0].Username, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, strconv.FormatInt(1_700_000_000+3600, 10), parts[0])
	assert.Equal(t, "duo", parts[1])
	assert.NotEmpty(t, parts[2])

	mac := hmac.New(sha1.New, []byte("s3cret"))
	mac.Write([]byte(servers[0].Username))
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), servers[0].Credential)
}

func TestSharedSecretProviderOptions(t *testing.T) {
	_, err := NewSharedSecretProvider(SharedSecretOptions{TTL: time.Hour, URLs: []string{"turn:a"}})
	assert.Error(t, err)
	_, err = NewSharedSecretProvider(SharedSecretOptions{Secret: "x", URLs: []string{"turn:a"}})
	assert.Error(t, err)
	_, err = NewSharedSecretProvider(SharedSecretOptions{Secret: "x", TTL: time.Hour, Prefix: "a:b", URLs: []string{"turn:a"}})
	assert.Error(t, err)
	_, err = NewSharedSecretProvider(SharedSecretOptions{Secret: "x", TTL: time.Hour})
	assert.Error(t, err)
}

type fakeTokens struct {
	tok *openapi.ApiV2010Token
	err error
	ttl *int
}

func (f *fakeTokens) CreateToken(params *openapi.CreateTokenParams) (*openapi.ApiV2010Token, error) {
	f.ttl = params.Ttl
	return f.tok, f.err
}

func TestTwilioProvider(t *testing.T) {
	list := []openapi.ApiV2010TokenIceServers{
		{Urls: "stun:global.stun.twilio.com:3478"},
		{Url: "turn:global.turn.twilio.com:3478?transport=udp", Username: "u", Credential: "c"},
		{},
	}
	api := &fakeTokens{tok: &openapi.ApiV2010Token{IceServers: &list}}
	p := NewTwilioProviderWithAPI(api, 600)

	servers, err := p.ICEServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Server{
		{URLs: []string{"stun:global.stun.twilio.com:3478"}},
		{URLs: []string{"turn:global.turn.twilio.com:3478?transport=udp"}, Username: "u", Credential: "c"},
	}, servers)
	require.NotNil(t, api.ttl)
	assert.Equal(t, 600, *api.ttl)
}

func TestTwilioProviderFailure(t *testing.T) {
	p := NewTwilioProviderWithAPI(&fakeTokens{err: errors.New("401")}, 0)
	_, err := p.ICEServers(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = NewTwilioProvider("", "", 0)
	assert.Error(t, err)
}

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"urls":"turn:t:3478","username":"u","credential":"c"}]`))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(HTTPOptions{URL: srv.URL, Token: "tok"})
	require.NoError(t, err)
	servers, err := p.ICEServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Server{{URLs: []string{"turn:t:3478"}, Username: "u", Credential: "c"}}, servers)
}

func TestHTTPProviderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(HTTPOptions{URL: srv.URL})
	require.NoError(t, err)
	_, err = p.ICEServers(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (c *countingProvider) ICEServers(context.Context) ([]Server, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []Server{{URLs: []string{"stun:a"}}}, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, time.Minute)

	for i := 0; i < 3; i++ {
		servers, err := p.ICEServers(context.Background())
		require.NoError(t, err)
		assert.Len(t, servers, 1)
	}
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{err: ErrUpstream}
	p := NewCachedProvider(inner, time.Minute)

	_, err := p.ICEServers(context.Background())
	assert.Error(t, err)
	_, err = p.ICEServers(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedProviderDisabled(t *testing.T) {
	inner := &countingProvider{}
	assert.Same(t, Provider(inner), NewCachedProvider(inner, 0))
}

func TestNewProvider(t *testing.T) {
	p, err := New(Options{Provider: ProviderStatic, ICEServers: `[{"urls":"stun:a"}]`, CacheTTL: time.Minute})
	require.NoError(t, err)
	servers, err := p.ICEServers(context.Background())
	require.NoError(t, err)
	assert.Len(t, servers, 1)

	_, err = New(Options{Provider: "carrier-pigeon"})
	assert.Error(t, err)
	_, err = New(Options{Provider: ProviderTwilio})
	assert.Error(t, err)
}

type blockingProvider struct {
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingProvider) ICEServers(ctx context.Context) ([]Server, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
		return []Server{{URLs: []string{"stun:a"}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCachedProviderSurvivesFirstCallerLeaving(t *testing.T) {
	inner := &blockingProvider{release: make(chan struct{})}
	p := NewCachedProvider(inner, time.Minute)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.ICEServers(first)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	secondDone := make(chan []Server, 1)
	go func() {
		s, err := p.ICEServers(context.Background())
		assert.NoError(t, err)
		secondDone <- s
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(inner.release)
	select {
	case s := <-secondDone:
		assert.Len(t, s, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never completed")
	}
	assert.Equal(t, int32(1), inner.calls.Load())
}
