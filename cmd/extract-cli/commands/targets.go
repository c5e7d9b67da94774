package commands

import (
	"os"

	"civicsearch-backend/lib/serviceutil"
	"civicsearch-backend/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(targetsCmd)
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Prints the configured target catalogue.",
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		cat, err := loadCatalogue()
		if err != nil {
			serviceutil.Fatal("failed to read target catalogue", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Name", "Base Url", "Sweep", "Category", "Page Size", "Enabled"})

		for _, target := range cat.Targets {
			sweep := target.Sweep
			if sweep == "" {
				sweep = "lexical"
			}
			category := target.Category
			if category == "" {
				category = "permits"
			}
			t.AppendRow(table.Row{
				target.Id,
				target.Name,
				target.BaseUrl,
				string(sweep),
				category,
				target.PageSize,
				target.Enabled,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
