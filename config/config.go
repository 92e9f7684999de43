// Package config loads the run configuration from a YAML file, with IMBRUT_*
// environment variables (optionally from a .env file) taking precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/imbrut/imbrut/proto"
	"github.com/imbrut/imbrut/strategy"
	"github.com/imbrut/imbrut/util"
)

const EnvPrefix = "IMBRUT"

var ErrInvalid = errors.New("invalid config")

const (
	DictFile      = "file"
	DictGenerator = "generator"

	AmbiguousReject = "reject"
	AmbiguousAccept = "accept"
)

type DictProps struct {
	// Single length ("4") or range ("1-6")
	PasswordLength string   `mapstructure:"password_length"`
	AllowedChars   []string `mapstructure:"allowed_chars"`
}

// JSONRule accepts a response whose JSON body has Path, equal to Equals when
// Equals is set.
type JSONRule struct {
	Path   string `mapstructure:"path"`
	Equals string `mapstructure:"equals"`
}

type Target struct {
	URI           string            `mapstructure:"uri"`
	Method        string            `mapstructure:"method"`
	Headers       map[string]string `mapstructure:"headers"`
	AuthType      string            `mapstructure:"auth_type"`
	UsernameField string            `mapstructure:"username_field"`
	PasswordField string            `mapstructure:"password_field"`

	SuccessCodes      []int      `mapstructure:"success_codes"`
	SuccessIfContains []string   `mapstructure:"success_if_contains"`
	FailIfContains    []string   `mapstructure:"fail_if_contains"`
	SuccessIfMatches  []string   `mapstructure:"success_if_matches"`
	FailIfMatches     []string   `mapstructure:"fail_if_matches"`
	SuccessIfJSON     []JSONRule `mapstructure:"success_if_json"`
	OnAmbiguous       string     `mapstructure:"on_ambiguous"`

	FollowRedirects bool `mapstructure:"follow_redirects"`
}

type Config struct {
	Proto     string    `mapstructure:"proto"`
	DictType  string    `mapstructure:"dict_type"`
	DictProps DictProps `mapstructure:"dict_props"`

	// Inline usernames, used instead of the usernames file when set
	Usernames []string `mapstructure:"usernames"`

	Target Target `mapstructure:"target"`

	// Each entry is a single-key map, {requests: n} or {sleep: ms}
	Strategy []map[string]uint64 `mapstructure:"strategy"`
}

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env overrides only apply to keys viper already knows about
	v.SetDefault("proto", "http")
	v.SetDefault("dict_type", DictFile)
	v.SetDefault("dict_props.password_length", "")
	v.SetDefault("target.uri", "")
	v.SetDefault("target.method", "")
	v.SetDefault("target.auth_type", "")
	v.SetDefault("target.on_ambiguous", "")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks everything that can be checked before any network activity.
func (cfg *Config) Validate() error {
	cfg.Proto = strings.ToLower(strings.TrimSpace(cfg.Proto))
	cfg.DictType = strings.ToLower(strings.TrimSpace(cfg.DictType))
	cfg.Target.OnAmbiguous = strings.ToLower(strings.TrimSpace(cfg.Target.OnAmbiguous))

	if _, err := proto.ParseKind(cfg.Proto); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch cfg.DictType {
	case DictFile:
	case DictGenerator:
		if len(cfg.DictProps.AllowedChars) == 0 {
			return fmt.Errorf("%w: dict_props.allowed_chars is required for the generator", ErrInvalid)
		}
		if _, _, err := cfg.PasswordLengths(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unsupported dict_type %q", ErrInvalid, cfg.DictType)
	}

	if strings.TrimSpace(cfg.Target.URI) == "" {
		return fmt.Errorf("%w: target.uri is required", ErrInvalid)
	}

	switch cfg.Target.OnAmbiguous {
	case "", AmbiguousReject, AmbiguousAccept:
	default:
		return fmt.Errorf("%w: target.on_ambiguous must be %q or %q", ErrInvalid, AmbiguousReject, AmbiguousAccept)
	}

	for i, rule := range cfg.Target.SuccessIfJSON {
		if rule.Path == "" {
			return fmt.Errorf("%w: target.success_if_json[%d] has no path", ErrInvalid, i)
		}
	}

	if _, err := cfg.Plan(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

func (cfg *Config) Kind() proto.Kind {
	kind, _ := proto.ParseKind(cfg.Proto)
	return kind
}

func (cfg *Config) PasswordLengths() (int, int, error) {
	min, max, err := util.ParseLenRange(cfg.DictProps.PasswordLength)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: dict_props.password_length: %w", ErrInvalid, err)
	}
	return min, max, nil
}

func (cfg *Config) Plan() (strategy.Plan, error) {
	raw := make([]strategy.RawStep, 0, len(cfg.Strategy))
	for i, entry := range cfg.Strategy {
		if len(entry) != 1 {
			return nil, fmt.Errorf("%w: step %d: expected exactly one key, got (%d)", strategy.ErrInvalidPlan, i, len(entry))
		}
		for kind, value := range entry {
			raw = append(raw, strategy.RawStep{Kind: kind, Value: value})
		}
	}

	return strategy.ParsePlan(raw)
}

// ProtoTarget converts the target section. Websocket targets accept the
// ambiguous case unless told otherwise, since a completed upgrade has no body
// to match against.
func (cfg *Config) ProtoTarget() proto.Target {
	t := cfg.Target

	accept := t.OnAmbiguous == AmbiguousAccept
	if t.OnAmbiguous == "" && cfg.Kind() == proto.KindWebsocket {
		accept = true
	}

	var jsonRules map[string]string
	if len(t.SuccessIfJSON) > 0 {
		jsonRules = make(map[string]string, len(t.SuccessIfJSON))
		for _, rule := range t.SuccessIfJSON {
			jsonRules[rule.Path] = rule.Equals
		}
	}

	return proto.Target{
		URI:           t.URI,
		Method:        t.Method,
		Headers:       t.Headers,
		AuthType:      t.AuthType,
		UsernameField: t.UsernameField,
		PasswordField: t.PasswordField,
		Rules: proto.RuleConfig{
			SuccessCodes:      t.SuccessCodes,
			SuccessIfContains: t.SuccessIfContains,
			FailIfContains:    t.FailIfContains,
			SuccessIfMatches:  t.SuccessIfMatches,
			FailIfMatches:     t.FailIfMatches,
			SuccessIfJSON:     jsonRules,
			AcceptAmbiguous:   accept,
		},
	}
}
