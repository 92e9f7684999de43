// Package proto holds the protocol checkers that decide whether a credential
// is accepted by a target, and the binding that lets the pacing engine drive
// any of them without knowing which one it has.
package proto

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/imbrut/imbrut/creds"
)

var (
	ErrUnsupportedProto    = errors.New("unsupported protocol")
	ErrUnsupportedAuthType = errors.New("unsupported authentication type")
	ErrInvalidTarget       = errors.New("invalid target")

	// A credential reached a checker of a different kind. Only wiring bugs
	// cause this, so it is raised with panic.
	ErrLogicFault = errors.New("logic fault")
)

// TransportError is returned by a check when the request couldn't be sent or
// its response couldn't be read. It says nothing about the credential.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind tags credentials with the protocol that produced them.
type Kind uint8

const (
	KindHTTP Kind = iota + 1
	KindWebsocket
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindWebsocket:
		return "ws"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "http", "https":
		return KindHTTP, nil
	case "ws", "wss", "websocket":
		return KindWebsocket, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedProto, s)
	}
}

type Outcome uint8

const (
	Rejected Outcome = iota
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Credential is a username/password pair tagged with the kind of checker it
// belongs to.
type Credential struct {
	Kind Kind
	creds.Credential
}

// ProbeInfo describes the target's answer to a request without credentials.
type ProbeInfo struct {
	StatusCode  int
	Server      string
	ContentType string
	BodySize    int

	// How the unauthenticated response classifies. Accepted here usually
	// means the success rules are too loose.
	Outcome Outcome
}

// Checker is a concrete protocol implementation.
type Checker interface {
	Kind() Kind
	Check(ctx context.Context, c creds.Credential) (Outcome, error)
	Probe(ctx context.Context) (ProbeInfo, error)
}

// Proto is what the pacing engine drives: one checker bound to the stream of
// credentials it will be fed.
type Proto interface {
	Kind() Kind
	Check(ctx context.Context, c Credential) (Outcome, error)
	Credentials() iter.Seq[Credential]
	Workload() uint64

	// Err reports a read error that ended the last Credentials pass early.
	Err() error
}

type bound struct {
	checker Checker
	stream  creds.Stream
}

func Bind(checker Checker, stream creds.Stream) Proto {
	return &bound{checker: checker, stream: stream}
}

func (b *bound) Kind() Kind {
	return b.checker.Kind()
}

func (b *bound) Check(ctx context.Context, c Credential) (Outcome, error) {
	if c.Kind != b.checker.Kind() {
		panic(fmt.Errorf("%w: %s credential passed to %s checker", ErrLogicFault, c.Kind, b.checker.Kind()))
	}

	return b.checker.Check(ctx, c.Credential)
}

func (b *bound) Credentials() iter.Seq[Credential] {
	kind := b.checker.Kind()

	return func(yield func(Credential) bool) {
		for c := range b.stream.Iter() {
			if !yield(Credential{Kind: kind, Credential: c}) {
				return
			}
		}
	}
}

func (b *bound) Workload() uint64 {
	return b.stream.Count()
}

func (b *bound) Err() error {
	return b.stream.Err()
}
