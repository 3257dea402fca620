package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/logger"
	"github.com/ajitpratap0/opendota-datasource/pkg/observability"

	// Register the source and the file destinations
	_ "github.com/ajitpratap0/opendota-datasource/pkg/connector/destinations"
	_ "github.com/ajitpratap0/opendota-datasource/pkg/connector/sources/opendota"
)

var version = "1.0.0"

// envPrefix prefixes every environment variable the CLI reads
const envPrefix = "OPENDOTA"

// credentialKeys are the source credentials settable by flag or environment
var credentialKeys = []string{
	config.KeyBaseURL,
	config.KeyPlayerID,
	config.KeyMatchID,
	config.KeyAPIKey,
	config.KeyDatasets,
}

// cli holds the state shared by all commands of one invocation
type cli struct {
	v      *viper.Viper
	out    io.Writer
	log    *zap.Logger
	runID  string
	ctx    context.Context
	traces observability.ShutdownFunc
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(ctx, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(ctx context.Context, out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out, ctx: ctx, log: zap.NewNop()}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "opendota",
		Short:         "OpenDota data source for Evidence",
		Long:          `Fetches OpenDota API endpoints as typed datasets and writes them to JSON or CSV files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a YAML connector configuration")
	pf.String("env-file", "", "Load environment variables from this file (default .env when present)")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (json, console)")
	pf.StringToString("option", nil, "Connection option passed to the source, repeatable (key=value)")
	pf.String("base-url", "", "OpenDota API base URL")
	pf.String("player-id", "", "Account id for the playerData dataset")
	pf.String("match-id", "", "Match id, enables the matches dataset")
	pf.String("api-key", "", "OpenDota API key")
	pf.String("datasets", "", "Comma-separated dataset selection")
	for _, name := range []string{"config", "env-file", "log-level", "log-format", "base-url", "player-id", "match-id", "api-key", "datasets"} {
		_ = c.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), pf.Lookup(name))
	}

	root.AddCommand(
		c.versionCmd(),
		c.listCmd(),
		c.optionsCmd(),
		c.datasetsCmd(),
		c.testConnectionCmd(),
		c.processCmd(),
		c.describeCmd(),
		c.queryCmd(),
	)
	return root
}

// setup loads the env file and installs the logger and tracer
func (c *cli) setup() error {
	if path := c.v.GetString("env_file"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	if err := logger.Init(logger.Config{
		Level:    c.v.GetString("log_level"),
		Encoding: c.v.GetString("log_format"),
	}); err != nil {
		return err
	}
	c.runID = uuid.NewString()
	c.ctx = logger.ContextWithRunID(c.ctx, c.runID)
	c.log = logger.WithContext(c.ctx).With(zap.String("component", "cli"))
	return nil
}

func (c *cli) teardown() error {
	if c.traces != nil {
		if err := c.traces(context.Background()); err != nil {
			c.log.Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = logger.Sync()
	return nil
}

// sourceConfig builds the source config: defaults, then the YAML file, then
// environment and flags
func (c *cli) sourceConfig() (*config.BaseConfig, error) {
	cfg := config.NewBaseConfig("opendota", "opendota")
	if path := c.v.GetString("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Security.Credentials == nil {
		cfg.Security.Credentials = map[string]string{}
	}
	for _, key := range credentialKeys {
		if val := c.v.GetString(key); val != "" {
			cfg.Security.Credentials[key] = val
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if c.traces == nil {
		tc := observability.TracingConfigFromBase(cfg)
		tc.ServiceVersion = version
		shutdown, err := observability.InitTracing(tc)
		if err != nil {
			return nil, err
		}
		c.traces = shutdown
	}
	return cfg, nil
}

// options returns the --option values as connection options
func (c *cli) options(cmd *cobra.Command) core.Options {
	opts, _ := cmd.Flags().GetStringToString("option")
	return core.Options(opts)
}
