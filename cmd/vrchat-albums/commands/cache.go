package commands

import (
	"fmt"

	"vrchat-albums/internal/thumbnail"
	"vrchat-albums/internal/workers"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const maxWarmWorkers = 8

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the thumbnail cache",
	}
	cmd.AddCommand(c.newCacheEvictCmd())
	cmd.AddCommand(c.newCacheWarmCmd())
	return cmd
}

func (c *CLI) newCacheEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict",
		Short: "Remove the oldest thumbnails when the cache is over its size limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			comp, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			result, err := comp.thumbs.Evict(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d files (%s), cache now %s\n",
				result.RemovedFiles, result.Files,
				humanize.Bytes(uint64(result.RemovedBytes)), humanize.Bytes(uint64(result.FinalBytes)))
			return nil
		},
	}
}

func (c *CLI) newCacheWarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Pre-render thumbnails for the most recent photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			width, _ := cmd.Flags().GetInt("width")
			limit, _ := cmd.Flags().GetInt("limit")
			if width < 0 {
				return fmt.Errorf("width must not be negative, got %d", width)
			}

			ctx := cmd.Context()
			comp, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			paths, err := comp.db.RecentPhotoPaths(ctx, limit)
			if err != nil {
				return err
			}
			requests := make([]thumbnail.Request, len(paths))
			for i, path := range paths {
				requests[i] = thumbnail.Request{Path: path, Width: width}
			}

			service := thumbnail.NewBatchService(comp.thumbs, comp.governor, workers.ForThumbnails(maxWarmWorkers))
			result, err := service.GetMany(ctx, requests)
			if err != nil {
				return err
			}

			for _, f := range result.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", f.Reason, f.Request.Path, f.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d thumbnails ready, %d failed\n", len(result.Success), len(result.Failed))
			return nil
		},
	}
	cmd.Flags().Int("width", 256, "Thumbnail width in pixels, 0 for original size")
	cmd.Flags().Int("limit", 500, "Number of recent photos to render, 0 for all")
	return cmd
}
