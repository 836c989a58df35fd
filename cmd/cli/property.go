package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/crn/internal/app"
	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
)

func newPropertyCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Import and sync public property records",
	}

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import property records from a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			return opts.withContainer(cmd.Context(), func(c *app.Container) error {
				res, err := c.Properties.ImportProperties(cmd.Context(), f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with a header row")
	_ = importCmd.MarkFlagRequired("file")

	req := &dto.BatchSyncRequest{}
	var all bool
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Create network identities for unlinked residential records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *app.Container) error {
				if req.Limit == 0 {
					req.Limit = c.Config.Jobs.SyncBatchSize
				}
				var total models.SyncResult
				for {
					res, err := c.Properties.BatchSyncProperties(cmd.Context(), req)
					if err != nil {
						return err
					}
					total.Created += res.Created
					total.Linked += res.Linked
					total.Skipped += res.Skipped
					if res.NextCursor != "" {
						total.NextCursor = res.NextCursor
					}
					if !all || res.Created+res.Linked+res.Skipped == 0 || res.NextCursor == "" {
						break
					}
					req.AfterID = res.NextCursor
				}
				return printJSON(cmd.OutOrStdout(), total)
			})
		},
	}
	syncCmd.Flags().StringVar(&req.County, "county", "", "only records in this county")
	syncCmd.Flags().StringVar(&req.Municipality, "municipality", "", "only records in this municipality")
	syncCmd.Flags().StringVar(&req.State, "state", "", "only records in this state")
	syncCmd.Flags().StringVar(&req.AfterID, "after", "", "resume after this record id")
	syncCmd.Flags().IntVar(&req.Limit, "limit", 0, "records per batch (defaults to jobs.sync_batch_size)")
	syncCmd.Flags().BoolVar(&all, "all", false, "keep syncing batches until none remain")

	cmd.AddCommand(importCmd, syncCmd)
	return cmd
}
