package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"civicsearch-backend/lib/configuration"
	"civicsearch-backend/lib/proxyring"
	"civicsearch-backend/lib/scrapers/civicgov"
	"civicsearch-backend/lib/serviceutil"
	"civicsearch-backend/lib/telemetry"
	"civicsearch-backend/services/extraction"
	"civicsearch-backend/services/extraction/runstore"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runTarget *string
var runYear *int
var runGranularity *string
var runProxies *bool

func init() {
	runTarget = runCmd.Flags().String("target", "", "Restrict the run to a single target id.")
	runYear = runCmd.Flags().Int("year", 0, "Restrict temporal sweeps to a single year.")
	runGranularity = runCmd.Flags().String("granularity", "yearly", "Temporal sweep granularity: yearly, quarterly or monthly.")
	runProxies = runCmd.Flags().Bool("proxies", true, "Route requests through the configured proxy pool.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--target <id>] [--year <yyyy>] [--granularity <g>] [--proxies=false]",
	Short: "Sweeps every enabled target (or one target) and appends canonical records to the output files.",
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		ctx := cmd.Context()

		tel, err := telemetry.SetupFromEnv(ctx, "extract-cli")
		if err != nil && !os.IsNotExist(err) {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		if err == nil {
			defer tel.Shutdown(context.Background())
			telemetry.InstrumentPerfStats(ctx)
		}

		cat, err := loadCatalogue()
		if err != nil {
			serviceutil.Fatal("failed to read target catalogue", err)
		}

		granularity, err := extraction.ParseGranularity(*runGranularity)
		if err != nil {
			serviceutil.Fatal("bad --granularity", err)
		}

		targets := cat.Targets
		if *runTarget != "" {
			target, ok := cat.Lookup(*runTarget)
			if !ok {
				fmt.Fprintf(os.Stderr, "target %q is not in the catalogue\n", *runTarget)
				os.Exit(1)
			}
			target.Enabled = true
			targets = []configuration.Target{target}
		}

		var ring *proxyring.Ring
		if *runProxies && len(cat.Proxies) > 0 {
			ring, err = proxyring.New(cat.Proxies)
			if err != nil {
				serviceutil.Fatal("failed to build proxy ring", err)
			}
			slog.Info("proxy ring initialized", "proxies", ring.Len())
		} else {
			slog.Info("proxy routing disabled, using direct egress")
		}

		outputDir := cat.Engine.OutputDir
		if outputDir == "" {
			outputDir = "output"
		}

		coordinator, err := extraction.NewCoordinator(extraction.Options{
			OutputDir:   outputDir,
			TargetDelay: time.Duration(cat.Engine.TargetDelaySeconds) * time.Second,
			Client:      civicgov.ClientOptions{Ring: ring},
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize coordinator", err)
		}

		started := time.Now()
		summaries := coordinator.RunAll(ctx, targets, extraction.PlanOptions{
			Year:        *runYear,
			Granularity: granularity,
		})

		extraction.RenderSummary(os.Stdout, summaries)
		recordHistory(ctx, cat, summaries, started)
	},
}

// recordHistory writes one run-history row per target when a run
// database is configured. Best effort: history must never fail a sweep
// that already wrote its records.
func recordHistory(ctx context.Context, cat configuration.Catalogue, summaries []extraction.TargetSummary, started time.Time) {
	if cat.Engine.RunDatabase.File == "" && cat.Engine.RunDatabase.Url == "" {
		return
	}

	db, err := runstore.OpenDB(cat.Engine.RunDatabase)
	if err != nil {
		slog.Error("failed to open run database", "err", err)
		return
	}
	defer db.Close()

	store := runstore.NewStore(db)
	runId := uuid.NewString()
	for _, s := range summaries {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		err := store.Record(ctx, runstore.Row{
			RunId:          runId,
			TargetId:       s.TargetId,
			State:          string(s.State),
			UnitsCompleted: s.UnitsCompleted,
			UnitsAborted:   s.UnitsAborted,
			RecordsWritten: s.Records,
			RecordsTotal:   s.TotalRecords,
			StartedAt:      started,
			FinishedAt:     started.Add(s.Duration),
			Error:          errText,
		})
		if err != nil {
			slog.Error("failed to record run history", "target", s.TargetId, "err", err)
		}
	}
	slog.Info("run history recorded", "run_id", runId, "targets", len(summaries))
}
