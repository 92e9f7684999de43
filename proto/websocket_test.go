package proto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrut/imbrut/creds"
	"github.com/imbrut/imbrut/httpx"
)

func websockifyServer(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "vnc" || pass != "hunter2" {
			w.Header().Set("Server", "websockify")
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestWebsocketCheck(t *testing.T) {
	srv := websockifyServer(t)

	ws, err := NewWebsocket(Target{
		URI:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/websockify",
		Rules: RuleConfig{AcceptAmbiguous: true},
	}, httpx.NewWebsocketDialer(httpx.ClientConfig{}))
	require.NoError(t, err)

	ctx := context.Background()

	out, err := ws.Check(ctx, creds.Credential{Username: "vnc", Password: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, Rejected, out)

	out, err = ws.Check(ctx, creds.Credential{Username: "vnc", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, Accepted, out)
}

func TestWebsocketProbe(t *testing.T) {
	srv := websockifyServer(t)

	// http scheme is mapped to ws
	ws, err := NewWebsocket(Target{URI: srv.URL, AuthType: AuthBasic}, httpx.NewWebsocketDialer(httpx.ClientConfig{}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ws.uri, "ws://"))

	info, err := ws.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, info.StatusCode)
	assert.Equal(t, "websockify", info.Server)
	assert.Equal(t, Rejected, info.Outcome)
	assert.NotZero(t, info.BodySize)
}

func TestWebsocketTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	uri := srv.URL
	srv.Close()

	ws, err := NewWebsocket(Target{URI: uri}, httpx.NewWebsocketDialer(httpx.ClientConfig{}))
	require.NoError(t, err)

	_, err = ws.Check(context.Background(), creds.Credential{Username: "a", Password: "b"})
	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestNewWebsocketErrors(t *testing.T) {
	dialer := httpx.NewWebsocketDialer(httpx.ClientConfig{})

	_, err := NewWebsocket(Target{URI: "ws://x", AuthType: AuthForm}, dialer)
	assert.ErrorIs(t, err, ErrUnsupportedAuthType)

	_, err = NewWebsocket(Target{URI: "ws://x", Method: "POST"}, dialer)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = NewWebsocket(Target{URI: "tcp://x"}, dialer)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}
