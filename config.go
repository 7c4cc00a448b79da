package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Seednode/matchbox/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	bind           string
	dbDriver       string
	dbDSN          string
	port           int
	prefix         string
	profile        bool
	sampleFile     string
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	logger *zap.Logger
	sample string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.dbDriver {
	case storage.DriverSQLite, storage.DriverPostgres, storage.DriverMemory:
	default:
		return fmt.Errorf("invalid --db-driver (must be one of %s, %s, %s): %q",
			storage.DriverSQLite, storage.DriverPostgres, storage.DriverMemory, c.dbDriver)
	}
	if c.dbDriver != storage.DriverMemory && c.dbDSN == "" {
		return fmt.Errorf("--db-dsn is required for --db-driver %s", c.dbDriver)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadSample reads the word list shown to new players, if one was configured.
func (c *Config) loadSample() error {
	if c.sampleFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.sampleFile)
	if err != nil {
		return fmt.Errorf("read sample file: %w", err)
	}
	c.sample = string(data)

	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MATCHBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "matchbox",
		Short:         "A vocabulary matching game: paste word pairs, then match terms to definitions.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			if err := cfg.loadSample(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			cfg.logger = logger

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MATCHBOX_BIND)")
	fs.StringVar(&cfg.dbDriver, "db-driver", storage.DriverSQLite, "storage for saved word lists and settings: sqlite3, postgres or memory (env: MATCHBOX_DB_DRIVER)")
	fs.StringVar(&cfg.dbDSN, "db-dsn", "matchbox.db", "data source name for --db-driver (env: MATCHBOX_DB_DSN)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MATCHBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MATCHBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MATCHBOX_PROFILE)")
	fs.StringVar(&cfg.sampleFile, "sample-file", "", "word list shown to players with nothing saved or shared (env: MATCHBOX_SAMPLE_FILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended (env: MATCHBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MATCHBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MATCHBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MATCHBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MATCHBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("matchbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
