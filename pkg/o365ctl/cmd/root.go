// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/o365ctl/pkg/o365ctl/auth"
	"github.com/telekom/o365ctl/pkg/o365ctl/config"
	"github.com/telekom/o365ctl/pkg/o365ctl/credstore"
	"github.com/telekom/o365ctl/pkg/o365ctl/output"
	"github.com/telekom/o365ctl/pkg/o365ctl/profile"
	"github.com/telekom/o365ctl/pkg/system"
)

// Config wires the command tree to its environment. Zero values select the
// real environment; tests replace individual pieces.
type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	ErrorWriter  io.Writer
	// WorkDir locates the project (worker script, legacy token file, .env) and
	// receives exports. Defaults to the process working directory.
	WorkDir     string
	ProfilePath string
	TokenPath   string
	// Store replaces the configured credential backend.
	Store      credstore.Store
	Browser    func(string) error
	HTTPClient *http.Client
	Now        func() time.Time
}

type runtimeState struct {
	configPath           string
	cfg                  *config.Config
	outputFormat         string
	tokenStorageOverride string
	verbose              bool
	noBrowser            bool
	writer               io.Writer
	errWriter            io.Writer
	workDir              string
	profilePath          string
	tokenPath            string
	store                credstore.Store
	browser              func(string) error
	httpClient           *http.Client
	now                  func() time.Time
	log                  *zap.SugaredLogger
	closeLog             func() error
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
		ErrorWriter:  os.Stderr,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath:  cfg.ConfigPath,
		writer:      cfg.OutputWriter,
		errWriter:   cfg.ErrorWriter,
		workDir:     cfg.WorkDir,
		profilePath: cfg.ProfilePath,
		tokenPath:   cfg.TokenPath,
		store:       cfg.Store,
		browser:     cfg.Browser,
		httpClient:  cfg.HTTPClient,
		now:         cfg.Now,
		log:         zap.NewNop().Sugar(),
	}

	root := &cobra.Command{
		Use:           "o365ctl",
		Short:         "Microsoft 365 administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.initEnvironment(); err != nil {
				return err
			}
			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" || cmd.Name() == "path" {
				return nil
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			return rt.initLogger()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return rt.Close()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&rt.tokenStorageOverride, "token-storage", "", "Token storage backend: keychain or file")
	root.PersistentFlags().BoolVar(&rt.noBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Write debug logs to stderr")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewAuthCommand(),
		NewRunCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

// Execute runs the command tree with ctx and releases the log file even when
// the command fails.
func Execute(ctx context.Context, cfg Config, args []string) error {
	root := NewRootCommand(cfg)
	root.SetArgs(args)
	rt, err := getRuntime(root)
	if err != nil {
		return err
	}
	err = root.ExecuteContext(context.WithValue(ctx, runtimeKey{}, rt))
	if closeErr := rt.Close(); err == nil {
		err = closeErr
	}
	return err
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// initEnvironment fills unset fields from the process environment. A .env file
// in the working directory is loaded first and never overrides set variables.
func (rt *runtimeState) initEnvironment() error {
	if rt.writer == nil {
		rt.writer = os.Stdout
	}
	if rt.errWriter == nil {
		rt.errWriter = os.Stderr
	}
	if rt.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		rt.workDir = wd
	}
	if err := config.LoadDotEnv(rt.workDir); err != nil {
		_, _ = fmt.Fprintf(rt.errWriter, "Warning: ignoring .env file: %v\n", err)
	}
	if rt.configPath == "" {
		rt.configPath = config.DefaultConfigPath()
	}
	if !rt.verbose {
		rt.verbose = envBool(config.EnvVerbose)
	}
	if !rt.noBrowser {
		rt.noBrowser = envBool(config.EnvNoBrowser)
	}
	if rt.now == nil {
		rt.now = time.Now
	}
	return nil
}

func envBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}

func (rt *runtimeState) initLogger() error {
	logFile := rt.cfg.Settings.LogFile
	if logFile == "" {
		logFile = config.DefaultLogPath()
	}
	logger, closeFn, err := system.NewLogger(system.LogOptions{File: logFile, Verbose: rt.verbose, Stderr: rt.errWriter})
	if err != nil {
		return err
	}
	rt.log = logger.Sugar()
	rt.closeLog = closeFn
	return nil
}

func (rt *runtimeState) Close() error {
	if rt.closeLog == nil {
		return nil
	}
	closeFn := rt.closeLog
	rt.closeLog = nil
	return closeFn()
}

// EnsureConfigLoaded loads the config file (defaults when missing) and applies
// O365CTL_* environment overrides.
func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.LoadOrDefault(rt.configPathValue())
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", rt.configPathValue(), err)
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) OutputFormat() (output.Format, error) {
	if rt.outputFormat != "" {
		return output.ParseFormat(rt.outputFormat)
	}
	if rt.cfg != nil && rt.cfg.Settings.OutputFormat != "" {
		return output.ParseFormat(rt.cfg.Settings.OutputFormat)
	}
	return output.FormatTable, nil
}

func (rt *runtimeState) TokenStorage() string {
	if rt.tokenStorageOverride != "" {
		return rt.tokenStorageOverride
	}
	if rt.cfg != nil && rt.cfg.Settings.TokenStorage != "" {
		return rt.cfg.Settings.TokenStorage
	}
	return config.TokenStorageKeychain
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

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

func (rt *runtimeState) profilePathValue() string {
	if rt.profilePath == "" {
		return config.DefaultProfilePath()
	}
	return rt.profilePath
}

func (rt *runtimeState) Store() (credstore.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	tokenPath := rt.tokenPath
	if tokenPath == "" {
		tokenPath = config.DefaultTokenPath()
	}
	store, err := credstore.New(rt.TokenStorage(), tokenPath)
	if err != nil {
		return nil, err
	}
	rt.store = store
	return store, nil
}

// Tenant is the configured tenant, or the tenant of the saved profile when the
// configuration leaves it at the multi-tenant default.
func (rt *runtimeState) Tenant() string {
	tenant := config.DefaultTenant
	if rt.cfg != nil && strings.TrimSpace(rt.cfg.Tenant) != "" {
		tenant = strings.TrimSpace(rt.cfg.Tenant)
	}
	if tenant != config.DefaultTenant {
		return tenant
	}
	if p, err := profile.Load(rt.profilePathValue()); err == nil && p.TenantID != "" {
		return p.TenantID
	}
	return tenant
}

// SessionManager builds the OAuth session manager. An empty tenant selects Tenant().
func (rt *runtimeState) SessionManager(tenant string) (*auth.SessionManager, error) {
	if err := rt.EnsureConfigLoaded(); err != nil {
		return nil, err
	}
	store, err := rt.Store()
	if err != nil {
		return nil, err
	}
	if tenant == "" {
		tenant = rt.Tenant()
	}
	authCfg := auth.Config{
		Tenant:          tenant,
		ClientID:        rt.cfg.ClientID,
		Authority:       rt.cfg.Authority,
		Discovery:       rt.cfg.Discovery,
		Scopes:          rt.cfg.Scopes,
		CallbackTimeout: rt.cfg.CallbackTimeout,
		CAFile:          rt.cfg.CAFile,
		InsecureSkipTLS: rt.cfg.InsecureSkipTLS,
	}
	browser := rt.browser
	if browser == nil {
		browser = auth.OpenBrowser
	}
	if rt.noBrowser {
		browser = nil
	}
	opts := []auth.Option{
		auth.WithLogger(rt.log.Named("auth")),
		auth.WithLegacyTokenPath(credstore.LegacyTokenPath(rt.workDir)),
		auth.WithBrowser(browser),
		auth.WithURLHandler(auth.PrintURL(rt.ErrWriter())),
	}
	if rt.httpClient != nil {
		opts = append(opts, auth.WithHTTPClient(rt.httpClient))
	}
	return auth.NewSessionManager(authCfg, store, opts...), nil
}
