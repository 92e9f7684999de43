package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/imbrut/imbrut/config"
	"github.com/imbrut/imbrut/creds"
	"github.com/imbrut/imbrut/httpx"
	"github.com/imbrut/imbrut/pool"
	"github.com/imbrut/imbrut/proto"
	"github.com/imbrut/imbrut/source"
	"github.com/imbrut/imbrut/strategy"
)

// Everything a run needs, built from config and flags before any network
// activity happens
type app struct {
	checker proto.Checker
	stream  creds.Stream
	plan    strategy.Plan
}

func build(cfg *config.Config, args *Args) (*app, error) {
	var proxies *pool.Pool
	if args.Proxies != "" {
		var err error
		proxies, err = pool.New(args.Proxies)
		if err != nil {
			return nil, fmt.Errorf("failed to read proxies file: %w", err)
		}
	}

	clientCfg := httpx.ClientConfig{
		Timeout:         args.Timeout,
		Insecure:        args.Insecure,
		FollowRedirects: cfg.Target.FollowRedirects,
		Proxies:         proxies,
	}

	checker, err := newChecker(cfg, clientCfg)
	if err != nil {
		return nil, err
	}

	stream, err := newStream(cfg, args)
	if err != nil {
		return nil, err
	}

	plan, err := cfg.Plan()
	if err != nil {
		return nil, err
	}

	return &app{checker: checker, stream: stream, plan: plan}, nil
}

func newChecker(cfg *config.Config, clientCfg httpx.ClientConfig) (proto.Checker, error) {
	switch cfg.Kind() {
	case proto.KindHTTP:
		checker, err := proto.NewHTTP(cfg.ProtoTarget(), httpx.NewClient(clientCfg))
		if err != nil {
			return nil, err
		}
		return checker, nil
	case proto.KindWebsocket:
		checker, err := proto.NewWebsocket(cfg.ProtoTarget(), httpx.NewWebsocketDialer(clientCfg))
		if err != nil {
			return nil, err
		}
		return checker, nil
	default:
		return nil, fmt.Errorf("%w: %q", proto.ErrUnsupportedProto, cfg.Proto)
	}
}

func newStream(cfg *config.Config, args *Args) (creds.Stream, error) {
	if args.Combos != "" {
		return creds.NewCombo(args.Combos)
	}

	var usernames source.Provider
	if len(cfg.Usernames) > 0 {
		usernames = source.NewList(cfg.Usernames)
	} else {
		file, err := source.NewFile(args.Usernames)
		if err != nil {
			return nil, err
		}
		usernames = file
	}

	var passwords source.Provider
	switch cfg.DictType {
	case config.DictGenerator:
		min, max, err := cfg.PasswordLengths()
		if err != nil {
			return nil, err
		}

		gen, err := source.NewGenerator(cfg.DictProps.AllowedChars, min, max)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		passwords = gen
	default:
		file, err := source.NewFile(args.Passwords)
		if err != nil {
			return nil, err
		}
		passwords = file
	}

	return creds.Product(usernames, passwords), nil
}

func run(ctx context.Context, cfg *config.Config, args *Args, reporter strategy.Reporter) (strategy.Result, error) {
	a, err := build(cfg, args)
	if err != nil {
		return strategy.Result{}, err
	}

	if !args.NoProbe {
		if err := doInitProbe(ctx, a.checker, cfg.Target.URI); err != nil {
			return strategy.Result{}, err
		}
	}

	engine := &strategy.Engine{
		Proto:      proto.Bind(a.checker, a.stream),
		Plan:       a.plan,
		Reporter:   reporter,
		Retries:    args.Retries,
		RetryDelay: args.RetryDelay,
	}

	pterm.Info.Printf("Checking (%d) credentials against %s, pacing: %s\n", a.stream.Count(), cfg.Target.URI, a.plan)

	return engine.Run(ctx)
}
