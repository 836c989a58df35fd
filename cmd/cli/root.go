// Package cli implements crn-admin, the operator command line for the reliability network.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/crn/internal/app"
	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/infrastructure/monitoring"
)

type options struct {
	configFile string
	logLevel   string
}

// NewRootCommand builds the crn-admin command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "crn-admin",
		Short: "Administer the Customer Reliability Network",
		Long: `crn-admin performs operator tasks against the network database: registering
businesses, importing and syncing public property records, running identity
maintenance and printing reports.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to the config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newBusinessCommand(opts),
		newPropertyCommand(opts),
		newIdentityCommand(opts),
		newReportCommand(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config. Logs go to stderr so stdout stays machine readable.
func (o *options) loadConfig() (*config.Config, error) {
	startup, err := monitoring.NewZapLogger(&config.LogConfig{Level: "error", OutputPath: "stderr"})
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewLoader(startup, o.configFile).Load()
	if err != nil {
		return nil, err
	}
	cfg.Log.Level = o.logLevel
	cfg.Log.OutputPath = "stderr"
	return cfg, nil
}

// withContainer builds the service container, runs fn and closes it.
func (o *options) withContainer(ctx context.Context, fn func(*app.Container) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	c, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
