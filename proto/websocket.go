package proto

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/imbrut/imbrut/creds"
	"github.com/imbrut/imbrut/httpx"
)

// gorilla/websocket keeps at most this much of a refused handshake's body
const maxHandshakeBody = 1024

// Websocket checks credentials sent as HTTP Basic auth on a websocket upgrade
// request (e.g. noVNC/websockify or API gateways). A completed upgrade shows up
// as status 101 with an empty body.
type Websocket struct {
	dialer *websocket.Dialer
	uri    string
	header http.Header
	rules  *Rules
}

// NewWebsocket accepts ws, wss, http and https URIs; the latter two are mapped
// to their websocket schemes. Success codes default to [101], and since a
// successful upgrade has no body the ambiguous case is normally set to accept.
func NewWebsocket(target Target, dialer *websocket.Dialer) (*Websocket, error) {
	authType := strings.ToLower(strings.TrimSpace(target.AuthType))
	if authType != "" && authType != AuthBasic {
		return nil, fmt.Errorf("%w: %q (websocket targets only support %q)", ErrUnsupportedAuthType, target.AuthType, AuthBasic)
	}

	if m := strings.TrimSpace(target.Method); m != "" && !strings.EqualFold(m, http.MethodGet) {
		return nil, fmt.Errorf("%w: websocket upgrades are always GET, got method %q", ErrInvalidTarget, target.Method)
	}

	u, err := url.Parse(target.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: uri: %s", ErrInvalidTarget, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: uri %q must be ws or wss", ErrInvalidTarget, target.URI)
	}

	header := http.Header{}
	header.Set("User-Agent", httpx.DefaultUserAgent)
	for key, value := range target.Headers {
		header.Set(key, value)
	}

	ruleCfg := target.Rules
	if len(ruleCfg.SuccessCodes) == 0 {
		ruleCfg.SuccessCodes = []int{http.StatusSwitchingProtocols}
	}
	rules, err := CompileRules(ruleCfg)
	if err != nil {
		return nil, err
	}

	return &Websocket{
		dialer: dialer,
		uri:    u.String(),
		header: header,
		rules:  rules,
	}, nil
}

func (ws *Websocket) Kind() Kind {
	return KindWebsocket
}

func (ws *Websocket) Check(ctx context.Context, c creds.Credential) (Outcome, error) {
	header := ws.header.Clone()
	header.Set("Authorization", "Basic "+basicAuth(c.Username, c.Password))

	status, body, _, err := ws.handshake(ctx, header)
	if err != nil {
		return Rejected, err
	}

	return ws.rules.Classify(status, body), nil
}

func (ws *Websocket) Probe(ctx context.Context) (ProbeInfo, error) {
	status, body, header, err := ws.handshake(ctx, ws.header.Clone())
	if err != nil {
		return ProbeInfo{}, err
	}

	return ProbeInfo{
		StatusCode:  status,
		Server:      header.Get("Server"),
		ContentType: header.Get("Content-Type"),
		BodySize:    len(body),
		Outcome:     ws.rules.Classify(status, body),
	}, nil
}

// A refused upgrade is a normal answer, not a transport error
func (ws *Websocket) handshake(ctx context.Context, header http.Header) (int, string, http.Header, error) {
	conn, resp, err := ws.dialer.DialContext(ctx, ws.uri, header)
	if err == nil {
		conn.Close()
		return resp.StatusCode, "", resp.Header, nil
	}

	if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxHandshakeBody))
		if readErr != nil {
			return 0, "", nil, &TransportError{Op: "read handshake response", Err: readErr}
		}
		return resp.StatusCode, string(body), resp.Header, nil
	}

	return 0, "", nil, &TransportError{Op: "websocket handshake", Err: err}
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
