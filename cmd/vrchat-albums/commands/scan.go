package commands

import (
	"fmt"
	"time"

	"vrchat-albums/internal/indexer"

	"github.com/spf13/cobra"
)

func (c *CLI) newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			full, _ := cmd.Flags().GetBool("full")
			mode := indexer.ModeIncremental
			if full {
				mode = indexer.ModeFull
			}

			ctx := cmd.Context()
			comp, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			comp.indexer.SetOnScanComplete(func(result *indexer.ScanResult) {
				comp.afterScan(ctx, result)
			})

			result, err := comp.indexer.Scan(ctx, mode)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%s scan: %d folders changed, %d unchanged, %d photos persisted, %d skipped in %v\n",
				result.Mode, result.FoldersChanged, result.FoldersUnchanged, result.Persisted,
				result.Skips.Total(), result.Duration.Round(time.Millisecond))
			if result.Skips.Total() > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", result.Skips)
			}
			return nil
		},
	}
	cmd.Flags().Bool("full", false, "Ignore stored folder state and re-extract every photo")
	return cmd
}
