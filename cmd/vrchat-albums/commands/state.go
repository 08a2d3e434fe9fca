package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset folder scan state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the number of tracked folders and the last scan time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			comp, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			folders, err := comp.db.CountFolderStates(ctx)
			if err != nil {
				return err
			}
			photos, err := comp.db.CountPhotos(ctx)
			if err != nil {
				return err
			}
			lastScan, err := comp.db.GetLastScan(ctx)
			if err != nil {
				return err
			}

			last := "never"
			if !lastScan.IsZero() {
				last = lastScan.Format("2006-01-02T15:04:05Z07:00")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "folders: %d\nphotos: %d\nlast scan: %s\n", folders, photos, last)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget folder digests so the next scan revisits every folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			comp, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			if err := comp.indexer.ResetScanState(ctx); err != nil {
				return err
			}
			if err := comp.db.SetLastScan(ctx, time.Time{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "folder scan state cleared")
			return nil
		},
	})
	return cmd
}
