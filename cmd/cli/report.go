package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/crn/internal/app"
	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/infrastructure/monitoring"
	"github.com/turtacn/crn/internal/infrastructure/persistence/postgres"
)

func newReportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Network-wide aggregate reports",
	}

	tiers := &cobra.Command{
		Use:   "tiers",
		Short: "Count identities per risk tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// sqlite has no pgx pool; go through the repository instead.
			if cfg.Database.Driver != "postgres" {
				return opts.withContainer(cmd.Context(), func(c *app.Container) error {
					report, err := c.Maintenance.TierReport(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), report)
				})
			}
			return withReportStore(cmd.Context(), cfg, func(store *postgres.ReportStore) error {
				counts, err := store.TierDistribution(cmd.Context())
				if err != nil {
					return err
				}
				report := &dto.TierReport{Tiers: counts}
				for _, tc := range counts {
					report.Total += tc.Count
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	var limit int
	categories := &cobra.Command{
		Use:   "categories",
		Short: "Most reported incident categories (postgres only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return withReportStore(cmd.Context(), cfg, func(store *postgres.ReportStore) error {
				totals, err := store.TopCategories(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), totals)
			})
		},
	}
	categories.Flags().IntVar(&limit, "limit", 10, "number of categories")

	cmd.AddCommand(tiers, categories)
	return cmd
}

func withReportStore(ctx context.Context, cfg *config.Config, fn func(*postgres.ReportStore) error) error {
	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	store, err := postgres.NewReportStore(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
