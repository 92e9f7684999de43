package httpx

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrut/imbrut/pool"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(ClientConfig{})

	assert.Equal(t, DefaultTimeout, client.Timeout)
	require.NotNil(t, client.CheckRedirect)

	transport := client.Transport.(*http.Transport)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.False(t, transport.DisableKeepAlives)
}

func TestNewClientDoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.Redirect(w, r, "/home", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewClient(ClientConfig{Timeout: time.Second}).Get(srv.URL + "/login")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = NewClient(ClientConfig{Timeout: time.Second, FollowRedirects: true}).Get(srv.URL + "/login")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewClientWithProxies(t *testing.T) {
	proxies, err := pool.FromURLs([]string{"socks5://127.0.0.1:1"})
	require.NoError(t, err)

	client := NewClient(ClientConfig{Insecure: true, Proxies: proxies})
	transport := client.Transport.(*http.Transport)

	assert.True(t, transport.DisableKeepAlives)
	assert.Nil(t, transport.Proxy)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	dialer := NewWebsocketDialer(ClientConfig{Proxies: proxies})
	assert.Nil(t, dialer.Proxy)
	assert.NotNil(t, dialer.NetDialContext)
}

// stubProxy answers every proxied request itself with its own name.
func stubProxy(t *testing.T, name string, seen chan<- string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.String()
		_, _ = io.WriteString(w, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRotatesHTTPProxies(t *testing.T) {
	seen := make(chan string, 3)
	a := stubProxy(t, "a", seen)
	b := stubProxy(t, "b", seen)

	proxies, err := pool.FromURLs([]string{a.URL, b.URL})
	require.NoError(t, err)

	client := NewClient(ClientConfig{Timeout: 5 * time.Second, Proxies: proxies})
	transport := client.Transport.(*http.Transport)
	assert.True(t, transport.DisableKeepAlives)
	require.NotNil(t, transport.Proxy)

	var got []string
	for range 3 {
		resp, err := client.Get("http://login.invalid/form")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		got = append(got, string(body))
		assert.Equal(t, "http://login.invalid/form", <-seen)
	}

	assert.Equal(t, []string{"a", "b", "a"}, got)

	dialer := NewWebsocketDialer(ClientConfig{Proxies: proxies})
	assert.NotNil(t, dialer.Proxy)
}

func TestNewClientSocksDialErrorNamesProxy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	proxies, err := pool.FromURLs([]string{"socks5://" + addr})
	require.NoError(t, err)

	_, err = NewClient(ClientConfig{Timeout: 2 * time.Second, Proxies: proxies}).Get("http://login.invalid/form")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial via proxy socks5://"+addr)
}
