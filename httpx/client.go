// Package httpx builds the HTTP client and websocket dialer used for checks,
// with optional rotation through a proxy pool.
package httpx

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"

	"github.com/imbrut/imbrut/pool"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const DefaultTimeout = 30 * time.Second

type ClientConfig struct {
	Timeout         time.Duration
	Insecure        bool // Skip TLS certificate verification
	FollowRedirects bool

	// If set, every new connection goes through the next proxy in the pool.
	// Keep-alives are disabled so each check rotates.
	Proxies *pool.Pool
}

func (cfg ClientConfig) httpProxies() bool {
	return cfg.Proxies != nil && cfg.Proxies.HTTP()
}

// proxyFunc hands out the next HTTP proxy for every request.
func (cfg ClientConfig) proxyFunc() func(*http.Request) (*url.URL, error) {
	if cfg.Proxies == nil {
		return http.ProxyFromEnvironment
	} else if !cfg.httpProxies() {
		return nil
	}

	proxies := cfg.Proxies
	return func(*http.Request) (*url.URL, error) {
		p, err := proxies.Get()
		if err != nil {
			return nil, err
		}
		return p.URL, nil
	}
}

func (cfg ClientConfig) timeout() time.Duration {
	if cfg.Timeout <= 0 {
		return DefaultTimeout
	}
	return cfg.Timeout
}

func (cfg ClientConfig) dialContext() func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cfg.Proxies == nil || cfg.httpProxies() {
		return (&net.Dialer{
			Timeout:   cfg.timeout(),
			KeepAlive: 30 * time.Second,
		}).DialContext
	}

	proxies := cfg.Proxies
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		p, err := proxies.Get()
		if err != nil {
			return nil, err
		}

		var conn net.Conn
		if cd, ok := p.Dialer.(proxy.ContextDialer); ok {
			conn, err = cd.DialContext(ctx, network, addr)
		} else {
			// Dialers without context support (socks4) can't be interrupted
			conn, err = p.Dialer.Dial(network, addr)
		}
		if err != nil {
			return nil, fmt.Errorf("dial via proxy %s: %w", p.URL.Redacted(), err)
		}
		return conn, nil
	}
}

func NewClient(cfg ClientConfig) *http.Client {
	transport := &http.Transport{
		Proxy:       cfg.proxyFunc(),
		DialContext: cfg.dialContext(),

		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure,
		},
	}

	if cfg.Proxies != nil {
		transport.DisableKeepAlives = true
	}

	client := &http.Client{
		Timeout:   cfg.timeout(),
		Transport: transport,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}

func NewWebsocketDialer(cfg ClientConfig) *websocket.Dialer {
	dialer := &websocket.Dialer{
		Proxy:             cfg.proxyFunc(),
		NetDialContext:    cfg.dialContext(),
		HandshakeTimeout:  cfg.timeout(),
		EnableCompression: true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure,
		},
	}

	return dialer
}
