package proto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/imbrut/imbrut/creds"
	"github.com/imbrut/imbrut/httpx"
)

const (
	AuthForm  = "form"
	AuthBasic = "basic"
)

// Response bodies are read up to this many bytes before classification
const maxBodyBytes = 2 << 20

// Target is the static description of one endpoint.
type Target struct {
	URI     string
	Method  string
	Headers map[string]string

	AuthType      string
	UsernameField string
	PasswordField string

	Rules RuleConfig
}

// Doer lets us accept *http.Client or a test double.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTP checks credentials against a web login, either posted as a form or sent
// as HTTP Basic auth.
type HTTP struct {
	client   Doer
	template *http.Request
	rules    *Rules

	authType      string
	usernameField string
	passwordField string
}

// NewHTTP validates the target and builds the request template every check is
// cloned from. Method defaults to POST and success codes to [200].
func NewHTTP(target Target, client Doer) (*HTTP, error) {
	authType := strings.ToLower(strings.TrimSpace(target.AuthType))
	if authType != AuthForm && authType != AuthBasic {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAuthType, target.AuthType)
	}

	u, err := url.Parse(target.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: uri: %s", ErrInvalidTarget, err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: uri %q must be http or https", ErrInvalidTarget, target.URI)
	}

	method := strings.ToUpper(strings.TrimSpace(target.Method))
	if method == "" {
		method = http.MethodPost
	}

	template, err := http.NewRequest(method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, err)
	}

	template.Header.Set("User-Agent", httpx.DefaultUserAgent)
	for key, value := range target.Headers {
		template.Header.Set(key, value)
	}

	ruleCfg := target.Rules
	if len(ruleCfg.SuccessCodes) == 0 {
		ruleCfg.SuccessCodes = []int{http.StatusOK}
	}
	rules, err := CompileRules(ruleCfg)
	if err != nil {
		return nil, err
	}

	h := &HTTP{
		client:        client,
		template:      template,
		rules:         rules,
		authType:      authType,
		usernameField: target.UsernameField,
		passwordField: target.PasswordField,
	}
	if h.usernameField == "" {
		h.usernameField = "username"
	}
	if h.passwordField == "" {
		h.passwordField = "password"
	}

	return h, nil
}

func (h *HTTP) Kind() Kind {
	return KindHTTP
}

func (h *HTTP) Check(ctx context.Context, c creds.Credential) (Outcome, error) {
	req := h.template.Clone(ctx)

	switch h.authType {
	case AuthForm:
		form := url.Values{}
		form.Set(h.usernameField, c.Username)
		form.Set(h.passwordField, c.Password)
		setBody(req, form.Encode())

		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	case AuthBasic:
		req.SetBasicAuth(c.Username, c.Password)
	default:
		return Rejected, fmt.Errorf("%w: %q", ErrUnsupportedAuthType, h.authType)
	}

	status, body, _, err := h.send(req)
	if err != nil {
		return Rejected, err
	}

	return h.rules.Classify(status, body), nil
}

// Probe sends the bare template, without any credentials attached.
func (h *HTTP) Probe(ctx context.Context) (ProbeInfo, error) {
	status, body, header, err := h.send(h.template.Clone(ctx))
	if err != nil {
		return ProbeInfo{}, err
	}

	return ProbeInfo{
		StatusCode:  status,
		Server:      header.Get("Server"),
		ContentType: header.Get("Content-Type"),
		BodySize:    len(body),
		Outcome:     h.rules.Classify(status, body),
	}, nil
}

func (h *HTTP) send(req *http.Request) (int, string, http.Header, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, "", nil, &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, "", nil, &TransportError{Op: "read response", Err: err}
	}

	return resp.StatusCode, string(body), resp.Header, nil
}

func setBody(req *http.Request, body string) {
	req.Body = io.NopCloser(strings.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}
}
