package commands

import (
	"fmt"
	"os"

	"civicsearch-backend/lib/restyutil"
	"civicsearch-backend/lib/scrapers/civicgov"
	"civicsearch-backend/lib/serviceutil"
	"civicsearch-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <target-id>",
	Short: "Runs endpoint discovery against one target and prints the accepted path.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		cat, err := loadCatalogue()
		if err != nil {
			serviceutil.Fatal("failed to read target catalogue", err)
		}
		target, ok := cat.Lookup(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "target %q is not in the catalogue\n", args[0])
			os.Exit(1)
		}

		category, err := civicgov.ParseCategory(target.Category)
		if err != nil {
			serviceutil.Fatal("bad target category", err)
		}

		client, err := civicgov.NewClient(civicgov.ClientOptions{BaseUrl: target.BaseUrl})
		if err != nil {
			serviceutil.Fatal("failed to build client", err)
		}
		if *verbose {
			client.SetInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/probe"))
		}

		endpoint, err := client.Discover(cmd.Context(), target.ApiPrefix, category)
		if err != nil {
			serviceutil.Fatal("discovery failed", err)
		}

		fmt.Println(endpoint)
	},
}
