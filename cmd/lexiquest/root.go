package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/lexiquest/internal/app"
	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

var errNoLearner = errors.New("no learner yet (run 'lexiquest init' first)")

// cli carries state shared by every command of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
	envFile string

	cfg     *config.LocalConfig
	dir     string
	logger  *slog.Logger
	logFile *os.File
	app     *app.App
}

func newCLI() *cli {
	return &cli{v: config.NewViper()}
}

func (c *cli) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lexiquest",
		Short:         "LexiQuest - learn a language one quiz at a time",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default ~/.lexiquest/config.yaml)")
	flags.StringVar(&c.envFile, "env-file", ".env", "load LEXIQUEST_* variables from this file when it exists")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("storage", "", "storage backend: memory, file, sqlite, redis, postgres")
	flags.String("storage-path", "", "data location for the file and sqlite backends")
	flags.String("timezone", "", "IANA time zone for day, week and month boundaries")
	flags.String("lessons", "", "directory of lesson module files")

	bindFlag(c.v, config.KeyLogLevel, flags.Lookup("log-level"))
	bindFlag(c.v, config.KeyStorageBackend, flags.Lookup("storage"))
	bindFlag(c.v, config.KeyStoragePath, flags.Lookup("storage-path"))
	bindFlag(c.v, config.KeyTimezone, flags.Lookup("timezone"))
	bindFlag(c.v, config.KeyLessonsPath, flags.Lookup("lessons"))

	cmd.AddCommand(
		c.initCmd(),
		c.lessonsCmd(),
		c.playCmd(),
		c.statsCmd(),
		c.achievementsCmd(),
		c.historyCmd(),
		c.profileCmd(),
		c.remindCmd(),
		c.deleteAccountCmd(),
		c.configCmd(),
	)
	return cmd
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	cobra.CheckErr(v.BindPFlag(key, flag))
}

// setup loads .env, the config file and overrides, then installs the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}

	dir, err := config.EnsureLexiquestDir()
	if err != nil {
		return fmt.Errorf("ensure lexiquest dir: %w", err)
	}

	cfg, err := config.Load(c.cfgFile, c.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := setupLogging(cfg.Log, dir, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)

	c.cfg, c.dir, c.logger, c.logFile = cfg, dir, logger, logFile
	logger.Debug("command starting", "command", cmd.CommandPath(), "backend", cfg.Storage.Backend)
	return nil
}

// open builds the application on first use.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(ctx, app.Options{
		Config: c.cfg,
		Dir:    c.dir,
		Logger: c.logger,
	})
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// learner opens the app and returns the signed-in user.
func (c *cli) learner(ctx context.Context) (*app.App, domain.User, error) {
	a, err := c.open(ctx)
	if err != nil {
		return nil, domain.User{}, err
	}
	u, ok := a.Progress.User()
	if !ok {
		return nil, domain.User{}, errNoLearner
	}
	return a, u, nil
}

func (c *cli) close() {
	if c.app != nil {
		if err := c.app.Close(); err != nil && c.logger != nil {
			c.logger.Warn("close app", "error", err)
		}
		c.app = nil
	}
	if c.logFile != nil {
		c.logFile.Close()
		c.logFile = nil
	}
}
