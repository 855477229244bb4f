package main

import (
	"errors"
	stdLog "log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/catalog-service/catalog/app"
	"github.com/Astemirdum/catalog-service/catalog/config"
)

func main() {
	// .env is optional; real environment wins over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdLog.Fatal("load envs from .env ", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	logLevel     string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func newRootCmd() *cobra.Command {
	var f flags
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			app.Run(&cfg)
			return nil
		},
	}
	root := &cobra.Command{
		Use:          "catalog",
		Short:        "Book catalog service",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), &cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.logLevel, "log-level", "", "overrides LOG_LEVEL (debug, info, warn, error)")
	pf.DurationVar(&f.readTimeout, "read-timeout", 0, "overrides HTTP_READ_TIMEOUT")
	pf.DurationVar(&f.writeTimeout, "write-timeout", 0, "overrides HTTP_WRITE_TIMEOUT")

	root.AddCommand(serve, migrate)
	return root
}

// loadConfig turns explicitly set flags into config options.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	var ops []config.Option
	if cmd.Flags().Changed("log-level") {
		level, err := zapcore.ParseLevel(f.logLevel)
		if err != nil {
			return config.Config{}, err
		}
		ops = append(ops, config.WithLogLevel(level))
	}
	if cmd.Flags().Changed("read-timeout") {
		ops = append(ops, config.WithReadTimeout(f.readTimeout))
	}
	if cmd.Flags().Changed("write-timeout") {
		ops = append(ops, config.WithWriteTimeout(f.writeTimeout))
	}
	return config.NewConfig(ops...), nil
}
