package commands

import (
	"context"
	"fmt"
	"os"

	"civicsearch-backend/lib/configuration"

	"github.com/spf13/cobra"
)

var configPath *string
var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "extract-cli",
	Short: "extract-cli sweeps public records out of jurisdiction deployments of the vendor platform.",
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "targets.json5", "Path to the target catalogue.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging and HTTP dumps.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadCatalogue() (configuration.Catalogue, error) {
	return configuration.LoadCatalogue(*configPath)
}
