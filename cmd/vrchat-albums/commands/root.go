// Package commands implements the vrchat-albums command line.
package commands

import (
	"context"
	"io"

	"vrchat-albums/internal/startup"

	"github.com/spf13/cobra"
)

// Thumbnail renderer choices for --renderer.
const (
	rendererAuto    = "auto"
	rendererVips    = "vips"
	rendererImaging = "imaging"
)

// CLI represents the command line interface.
type CLI struct {
	rootCmd    *cobra.Command
	configPath string
	renderer   string
}

// New creates the command tree.
func New() *CLI {
	c := &CLI{}

	rootCmd := &cobra.Command{
		Use:           "vrchat-albums",
		Short:         "Incremental VRChat photo indexer and thumbnail cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       startup.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&c.renderer, "renderer", rendererAuto,
		"Thumbnail renderer: auto, vips or imaging")

	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newScanCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newStateCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}
