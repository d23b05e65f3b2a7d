package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/pjxcog/mojap-metadata/converters/database"
	"github.com/pjxcog/mojap-metadata/internal/config"
	"github.com/pjxcog/mojap-metadata/internal/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var mainOpts = struct {
	config   string
	dialect  string
	dsn      string
	logLevel string
	pretty   bool
}{}

// settings is the configuration file, overridden by global flags
var settings = config.Default()

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		logger := log.Base()
		logger.Fatal().Err(err).Msg("mojap failed")
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mojap"
	app.Usage = "Table metadata utilities"
	app.EnableBashCompletion = true
	app.Commands = []cli.Command{
		validate,
		convert,
		generate,
		ls,
		glueCommand,
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "YAML configuration file",
			EnvVar:      "MOJAP_CONFIG",
			Destination: &mainOpts.config,
		},
		cli.StringFlag{
			Name:        "dialect, d",
			Usage:       "Database dialect {postgres, sqlite, oracle}",
			EnvVar:      "MOJAP_DIALECT",
			Destination: &mainOpts.dialect,
		},
		cli.StringFlag{
			Name:        "dsn",
			Usage:       "Database connection string",
			EnvVar:      "MOJAP_DSN",
			Destination: &mainOpts.dsn,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level {debug, info, warn, error}",
			EnvVar:      "LOG_LEVEL",
			Destination: &mainOpts.logLevel,
		},
		cli.BoolFlag{
			Name:        "pretty",
			Usage:       "Human readable log output",
			Destination: &mainOpts.pretty,
		},
	}
	app.Before = func(c *cli.Context) error {
		return setup()
	}
	return app
}

// setup loads configuration, applies flag overrides, and configures logging
func setup() error {
	cfg, err := config.Load(mainOpts.config)
	if err != nil {
		return err
	}

	if mainOpts.dialect != "" {
		cfg.Database.Dialect = mainOpts.dialect
	}
	if mainOpts.dsn != "" {
		cfg.Database.DSN = mainOpts.dsn
	}
	if mainOpts.logLevel != "" {
		cfg.Log.Level = mainOpts.logLevel
	}
	if mainOpts.pretty {
		cfg.Log.Pretty = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Configure(log.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})
	settings = cfg
	return nil
}

// interruptible returns a context that is cancelled on SIGINT or SIGTERM
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openDatabase connects to the configured database
func openDatabase(ctx context.Context) (*sql.DB, *database.Converter, error) {
	if settings.Database.DSN == "" {
		return nil, nil, errors.New("no database connection string, use --dsn or MOJAP_DSN")
	}

	conv, err := database.New(settings.Database.Dialect)
	if err != nil {
		return nil, nil, err
	}
	conv.Concurrency = settings.Database.Concurrency

	db, err := database.Open(ctx, settings.Database.Dialect, settings.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return db, conv, nil
}
