package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/crn/internal/app"
	"github.com/turtacn/crn/internal/application/dto"
)

func newIdentityCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Network identity maintenance",
	}

	var batch int
	streak := &cobra.Command{
		Use:   "streak",
		Short: "Recompute clean streaks and badges for every identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *app.Container) error {
				if batch == 0 {
					batch = c.Config.Jobs.StreakBatchSize
				}
				res, err := c.Maintenance.RunCleanStreakJob(cmd.Context(), batch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	streak.Flags().IntVar(&batch, "batch", 0, "identities per page (defaults to jobs.streak_batch_size)")

	req := &dto.MergeIdentitiesRequest{}
	merge := &cobra.Command{
		Use:   "merge",
		Short: "Fold one identity into another",
		Long: `merge moves the incidents, reporters and hash keys of --absorb into --keep
and deletes --absorb. Use it when two identities turn out to be the same person.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *app.Container) error {
				merged, err := c.Maintenance.MergeIdentities(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), merged)
			})
		},
	}
	merge.Flags().StringVar(&req.KeepID, "keep", "", "identity that survives")
	merge.Flags().StringVar(&req.AbsorbID, "absorb", "", "identity folded into --keep")
	_ = merge.MarkFlagRequired("keep")
	_ = merge.MarkFlagRequired("absorb")

	cmd.AddCommand(streak, merge)
	return cmd
}
