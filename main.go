package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "embed"

	"github.com/alexflint/go-arg"
	"github.com/pterm/pterm"

	"github.com/imbrut/imbrut/config"
	"github.com/imbrut/imbrut/strategy"
)

//go:embed VERSION
var imbrutVersion string

// All command-line arguments
type Args struct {
	Config    string `arg:"-c,--config,env:IMBRUT_CONFIG" default:"config.yml" help:"path to the YAML config file"`
	Usernames string `arg:"-U,--usernames,env:IMBRUT_USERNAMES_FILE" default:"usernames.txt" help:"usernames wordlist, unused when the config lists usernames inline"`
	Passwords string `arg:"-P,--passwords,env:IMBRUT_PASSWORDS_FILE" default:"passwords.txt" help:"passwords wordlist, used when dict_type is file"`
	Combos    string `arg:"-C,--combos,env:IMBRUT_COMBOS_FILE" help:"file of username:password lines, replaces the usernames and passwords sources"`

	Proxies    string        `arg:"--proxies" help:"file listing SOCKS or HTTP proxies to rotate through, one scheme://[user:pass@]host:port per line"`
	Timeout    time.Duration `arg:"-t,--timeout" default:"30s" help:"per-request timeout"`
	Insecure   bool          `arg:"-k,--insecure" help:"skip TLS certificate verification"`
	Retries    int           `arg:"--retries" default:"2" help:"retry attempts per credential on connection errors, -1 retries forever"`
	RetryDelay time.Duration `arg:"--retry-delay" default:"1s" help:"delay between retry attempts"`

	NoProbe bool `arg:"--no-probe" help:"don't send an initial unauthenticated probe request"`
	Verbose bool `arg:"-v,--verbose" help:"log every check"`
}

func (Args) Version() string {
	return "imbrut v" + strings.TrimSpace(imbrutVersion)
}

func (Args) Description() string {
	return "Checks a list of candidate credentials against an HTTP login you are authorized to test, pacing requests to stay under lockout thresholds."
}

func main() {
	fmt.Printf(`imbrut v%s
Credential checker for authorized HTTP login testing

`, strings.TrimSpace(imbrutVersion))

	// Loaded before flag parsing so .env can also provide IMBRUT_CONFIG and friends
	if err := config.LoadEnvFile(".env"); err != nil {
		pterm.Error.Printf("%s\n", err)
		os.Exit(1)
	}

	var args Args
	arg.MustParse(&args)

	if args.Verbose {
		pterm.EnableDebugMessages()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(args.Config)
	if err != nil {
		pterm.Error.Printf("failed to load config: %s\n", err)
		os.Exit(1)
	}

	res, err := run(ctx, cfg, &args, new(progressReporter))
	if errors.Is(err, context.Canceled) {
		// PTerm ANSI formatting can persist after ctrl+c
		fmt.Print("\033[0m")
		pterm.Warning.Printf("Interrupted after (%d) checks\n", res.Checked)
		os.Exit(130)
	} else if err != nil {
		pterm.Error.Printf("%s\n", err)
		os.Exit(1)
	}

	printResult(res)
}

func printResult(res strategy.Result) {
	if res.Failed > 0 {
		pterm.Warning.Printf("(%d) credentials were skipped after connection errors\n", res.Failed)
	}

	switch res.Status {
	case strategy.Matched:
		pterm.Success.Printf("🎉 FOUND CREDENTIALS!! username %q, password %q (after %d checks)\n", res.Match.Username, res.Match.Password, res.Checked)
	default:
		pterm.Info.Printf("No match after (%d) checks\n", res.Checked)
	}
}
