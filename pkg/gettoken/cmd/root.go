package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
	"github.com/owleyeart/bba/pkg/gettoken/config"
	"github.com/owleyeart/bba/pkg/gettoken/logging"
	"github.com/owleyeart/bba/pkg/gettoken/output"
)

// ClientFactory builds the identity client for a resolved profile. out
// receives login instructions.
type ClientFactory func(cc config.ClientConfig, store cachestore.Store, log *zap.SugaredLogger, out io.Writer) (acquire.IdentityClient, error)

type Config struct {
	// Context is the parent of every command context. Cancelling it aborts
	// an acquisition in progress.
	Context      context.Context
	ConfigPath   string
	CachePath    string
	EnvFile      string
	OutputWriter io.Writer
	ErrWriter    io.Writer
	NewClient    ClientFactory
}

type runtimeState struct {
	configPath string
	cachePath  string
	envFile    string
	cfg        *config.Config
	ov         config.Overrides
	verbose    bool
	writer     io.Writer
	errWriter  io.Writer
	newClient  ClientFactory
	log        *zap.SugaredLogger
	cid        string
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		Context:      context.Background(),
		ConfigPath:   config.DefaultConfigPath(),
		CachePath:    config.DefaultCachePath(),
		OutputWriter: os.Stdout,
		ErrWriter:    os.Stderr,
		NewClient:    NewIdentityClient,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		cachePath:  cfg.CachePath,
		envFile:    cfg.EnvFile,
		writer:     cfg.OutputWriter,
		errWriter:  cfg.ErrWriter,
		newClient:  cfg.NewClient,
		log:        zap.NewNop().Sugar(),
	}

	root := &cobra.Command{
		Use:   "gettoken",
		Short: "Acquire an OAuth2 access token, silently when possible",
		Long: `gettoken acquires an access token for the active profile. It first tries
the first cached account without user interaction and falls back to an
interactive browser login.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.errWriter == nil {
				rt.errWriter = os.Stderr
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.cachePath == "" {
				rt.cachePath = config.DefaultCachePath()
			}
			if rt.newClient == nil {
				rt.newClient = NewIdentityClient
			}
			if err := config.LoadEnvFile(rt.envFile); err != nil {
				return err
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("GETTOKEN_VERBOSE"), "true")
			}

			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			log, err := logging.New(
				logging.WithLevel(rt.Settings().LogLevel),
				logging.WithVerbose(rt.verbose),
				logging.WithWriter(rt.errWriter),
			)
			if err != nil {
				return err
			}
			rt.log, rt.cid = logging.WithCorrelationID(log)
			rt.log.Debugw("Configuration loaded", "path", rt.configPath, "profiles", len(rt.cfg.Profiles))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGet(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	flags.StringVarP(&rt.ov.Profile, "profile", "p", "", "Profile name override")
	flags.StringVar(&rt.ov.ClientID, "client-id", "", "Application (client) ID")
	flags.StringVar(&rt.ov.TenantID, "tenant-id", "", "Directory (tenant) ID")
	flags.StringVar(&rt.ov.Authority, "authority", "", "Authority URL, overrides tenant-id")
	flags.StringSliceVar(&rt.ov.Scopes, "scope", nil, "Scope to request (repeatable)")
	flags.StringVar(&rt.ov.Backend, "backend", "", "Identity client backend: msal or oidc")
	flags.StringVar(&rt.ov.GrantType, "grant-type", "", "Grant: authorization-code, device-code or client-credentials")
	flags.StringVar(&rt.ov.TokenStorage, "token-storage", "", "Token storage backend: file or keychain")
	flags.BoolVar(&rt.ov.PrintToken, "print-token", false, "Print the access token after the status line")
	flags.StringVarP(&rt.ov.OutputFormat, "output", "o", "", "Output format: text, table, json, yaml")
	flags.StringVar(&rt.ov.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging with correlation IDs")

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	root.SetContext(context.WithValue(parent, runtimeKey{}, rt))

	root.AddCommand(
		NewGetCommand(),
		NewAccountsCommand(),
		NewLogoutCommand(),
		NewInspectCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.LoadOrDefault(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) Settings() config.Settings {
	return config.ResolveSettings(rt.cfg, rt.ov)
}

func (rt *runtimeState) OutputFormat() (output.Format, error) {
	return output.ParseFormat(rt.Settings().OutputFormat)
}

func (rt *runtimeState) ClientConfig() (config.ClientConfig, error) {
	return config.Resolve(rt.cfg, rt.ov)
}

func (rt *runtimeState) Store() (cachestore.Store, error) {
	return cachestore.New(rt.Settings().TokenStorage, rt.cachePath)
}

// IdentityClient resolves the active profile and builds its client.
func (rt *runtimeState) IdentityClient() (acquire.IdentityClient, config.ClientConfig, error) {
	cc, err := rt.ClientConfig()
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	store, err := rt.Store()
	if err != nil {
		return nil, cc, err
	}
	rt.log.Debugw("Building identity client", "profile", cc.Profile, "backend", cc.Backend,
		"authority", cc.Authority, "grantType", cc.GrantType, "confidential", cc.Confidential())
	client, err := rt.newClient(cc, store, rt.log, rt.ErrWriter())
	if err != nil {
		return nil, cc, err
	}
	return client, cc, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) ErrWriter() io.Writer {
	if rt.errWriter != nil {
		return rt.errWriter
	}
	return os.Stderr
}
