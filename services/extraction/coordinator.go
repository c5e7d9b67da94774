package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"civicsearch-backend/lib/configuration"
	"civicsearch-backend/lib/scrapers/civicgov"
	"civicsearch-backend/services/extraction/normalize"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/extraction")

// State is the coordinator's position in one target's sweep. The machine
// is deterministic and idempotent with respect to re-entry: re-running a
// partially checkpointed target skips straight past completed units.
type State string

const (
	StateNotStarted     State = "not_started"
	StateDiscovering    State = "discovering"
	StateSweeping       State = "sweeping"
	StatePaging         State = "paging"
	StateUnitComplete   State = "unit_complete"
	StateTargetComplete State = "target_complete"
	StateDone           State = "done"
	StateFailed         State = "failed"
	StateSkipped        State = "skipped"
)

type Options struct {
	// directory receiving output and checkpoint files
	OutputDir string
	// hard cap on pages fetched per work unit, bounds worst-case cost
	PageCeiling int
	// consecutive page failures before a unit is abandoned
	UnitFailureLimit int
	// an unfiltered lexical sweep yielding more than this many records is
	// presumed to cover the whole corpus, letter units are skipped
	EmptyTermShortCircuit int
	// pause between targets to avoid synchronized load spikes
	TargetDelay time.Duration
	// template for per-target clients; BaseUrl is filled in per target
	Client civicgov.ClientOptions
}

func (o *Options) fillDefaults() {
	if o.PageCeiling <= 0 {
		o.PageCeiling = 100
	}
	if o.UnitFailureLimit <= 0 {
		o.UnitFailureLimit = 5
	}
	if o.EmptyTermShortCircuit <= 0 {
		o.EmptyTermShortCircuit = 10_000
	}
}

// TargetSummary is the observable outcome of one target's sweep.
type TargetSummary struct {
	TargetId       string
	State          State
	UnitsCompleted int
	UnitsAborted   int
	// records written by this run; TotalRecords is cumulative across runs
	Records      int
	TotalRecords int
	Duration     time.Duration
	Err          error
}

type Coordinator struct {
	opts  Options
	store CheckpointStore
}

func NewCoordinator(opts Options) (*Coordinator, error) {
	opts.fillDefaults()
	store, err := NewCheckpointStore(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Coordinator{opts: opts, store: store}, nil
}

// RunAll sweeps the given targets sequentially. One target's failure
// never aborts the run; cancellation is honored at target boundaries.
func (c *Coordinator) RunAll(ctx context.Context, targets []configuration.Target, planOpts PlanOptions) []TargetSummary {
	var summaries []TargetSummary
	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		if !target.Enabled {
			slog.InfoContext(ctx, "target disabled, skipping", "target", target.Id)
			continue
		}
		if i > 0 && c.opts.TargetDelay > 0 {
			select {
			case <-time.After(c.opts.TargetDelay):
			case <-ctx.Done():
				return summaries
			}
		}

		summary := c.RunTarget(ctx, target, Plan(target, planOpts))
		summaries = append(summaries, summary)
	}
	return summaries
}

// RunTarget drives the full state machine for one target.
func (c *Coordinator) RunTarget(ctx context.Context, target configuration.Target, units []WorkUnit) TargetSummary {
	ctx, span := tracer.Start(ctx, "coordinator:RunTarget")
	defer span.End()

	started := time.Now()
	summary := TargetSummary{TargetId: target.Id, State: StateNotStarted}
	fail := func(err error) TargetSummary {
		span.RecordError(err)
		span.SetStatus(codes.Error, "target failed")
		summary.State = StateFailed
		summary.Err = err
		summary.Duration = time.Since(started)
		return summary
	}

	cp, err := c.store.Load(target.Id)
	if err != nil {
		return fail(fmt.Errorf("load checkpoint: %w", err))
	}
	if cp.Completed {
		slog.InfoContext(ctx, "target already complete, skipping", "target", target.Id)
		summary.State = StateSkipped
		summary.TotalRecords = cp.TotalRecords
		summary.Duration = time.Since(started)
		return summary
	}

	category, err := civicgov.ParseCategory(target.Category)
	if err != nil {
		return fail(err)
	}

	clientOpts := c.opts.Client
	clientOpts.BaseUrl = target.BaseUrl
	client, err := civicgov.NewClient(clientOpts)
	if err != nil {
		return fail(fmt.Errorf("build client: %w", err))
	}

	endpoint, err := c.resolveEndpoint(ctx, client, target, &cp, category, &summary)
	if err != nil {
		return fail(err)
	}

	sink, err := OpenSink(filepath.Join(c.opts.OutputDir, target.Id+".ndjson"))
	if err != nil {
		return fail(fmt.Errorf("open sink: %w", err))
	}
	defer sink.Close()

	summary.State = StateSweeping
	for _, unit := range units {
		if cp.UnitDone(unit.Name) {
			slog.DebugContext(ctx, "unit already checkpointed", "target", target.Id, "unit", unit.Name)
			continue
		}
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}

		slog.InfoContext(ctx, "sweeping unit", "target", target.Id, "unit", unit.Name)
		summary.State = StatePaging
		written, found, aborted, err := c.sweepUnit(ctx, client, endpoint, category, target, unit, sink)
		if err != nil {
			// only cancellation and catastrophic I/O escape sweepUnit
			return fail(err)
		}

		summary.Records += written
		if aborted {
			summary.UnitsAborted++
			slog.WarnContext(
				ctx, "unit aborted after repeated page failures",
				"target", target.Id,
				"unit", unit.Name,
			)
			continue
		}

		summary.State = StateUnitComplete
		summary.UnitsCompleted++
		cp.MarkUnit(unit.Name)
		cp.TotalRecords += written
		if err := c.store.Save(cp); err != nil {
			return fail(fmt.Errorf("save checkpoint: %w", err))
		}

		// an unfiltered sweep that large is presumed to cover the corpus
		if !unit.Temporal && unit.Term == "" && found > c.opts.EmptyTermShortCircuit {
			slog.InfoContext(
				ctx, "unfiltered sweep covered the corpus, skipping remaining terms",
				"target", target.Id,
				"found", found,
			)
			break
		}
	}

	summary.State = StateTargetComplete
	if summary.UnitsAborted == 0 {
		// aborted units keep the checkpoint incomplete so the next run
		// retries them
		cp.Completed = true
		if err := c.store.Save(cp); err != nil {
			return fail(fmt.Errorf("save checkpoint: %w", err))
		}
	}

	summary.State = StateDone
	summary.TotalRecords = cp.TotalRecords
	summary.Duration = time.Since(started)
	slog.InfoContext(
		ctx, "target swept",
		"target", target.Id,
		"records_written", summary.Records,
		"units_completed", summary.UnitsCompleted,
		"units_aborted", summary.UnitsAborted,
		"duration", summary.Duration,
	)
	return summary
}

func (c *Coordinator) resolveEndpoint(
	ctx context.Context,
	client *civicgov.Client,
	target configuration.Target,
	cp *Checkpoint,
	category civicgov.Category,
	summary *TargetSummary,
) (string, error) {
	if target.SearchPath != "" {
		return target.Endpoint(target.SearchPath), nil
	}
	if cp.Endpoint != "" {
		return cp.Endpoint, nil
	}

	summary.State = StateDiscovering
	endpoint, err := client.Discover(ctx, target.ApiPrefix, category)
	if err != nil {
		return "", fmt.Errorf("endpoint discovery: %w", err)
	}

	cp.Endpoint = endpoint
	if err := c.store.Save(*cp); err != nil {
		return "", fmt.Errorf("persist discovered endpoint: %w", err)
	}
	return endpoint, nil
}

// sweepUnit pages through one work unit in strictly increasing page
// order. Returns the records written, the vendor-reported corpus size
// for the unit, and whether the unit was abandoned. Page-level failures
// are contained here; only cancellation and sink I/O escape as errors.
func (c *Coordinator) sweepUnit(
	ctx context.Context,
	client *civicgov.Client,
	endpoint string,
	category civicgov.Category,
	target configuration.Target,
	unit WorkUnit,
	sink *Sink,
) (written int, found int, aborted bool, err error) {
	pageSize := target.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	page := 1
	consecutiveFailures := 0
	for {
		if ctx.Err() != nil {
			return written, found, false, ctx.Err()
		}

		req := civicgov.NewSearchRequest(category, unitCriteria(unit, page, pageSize))
		result, searchErr := client.Search(ctx, endpoint, req)
		if searchErr != nil {
			if errors.Is(searchErr, context.Canceled) || errors.Is(searchErr, context.DeadlineExceeded) {
				return written, found, false, searchErr
			}

			// malformed shapes and exhausted retries both count against
			// the unit's failure budget; the page is retried, not skipped
			consecutiveFailures++
			slog.WarnContext(
				ctx, "page failed",
				"target", target.Id,
				"unit", unit.Name,
				"page", page,
				"consecutive_failures", consecutiveFailures,
				"err", searchErr,
			)
			if consecutiveFailures >= c.opts.UnitFailureLimit {
				return written, found, true, nil
			}
			continue
		}
		consecutiveFailures = 0

		if len(result.Records) == 0 {
			return written, found, false, nil
		}
		if result.TotalFound > found {
			found = result.TotalFound
		} else if result.TotalFound == 0 {
			found += len(result.Records)
		}

		retrieved := time.Now()
		for _, raw := range result.Records {
			rec := normalizeRecord(raw, target, category, retrieved)
			ok, writeErr := sink.Write(rec)
			if writeErr != nil {
				return written, found, false, fmt.Errorf("write record: %w", writeErr)
			}
			if ok {
				written++
			}
		}

		page++
		if page > c.opts.PageCeiling {
			slog.WarnContext(
				ctx, "page ceiling reached",
				"target", target.Id,
				"unit", unit.Name,
				"ceiling", c.opts.PageCeiling,
			)
			return written, found, false, nil
		}
		if result.TotalPages > 0 && page > result.TotalPages {
			return written, found, false, nil
		}
	}
}

func normalizeRecord(raw json.RawMessage, target configuration.Target, category civicgov.Category, retrieved time.Time) normalize.Record {
	return normalize.Normalize(raw, normalize.TargetContext{
		TargetId:    target.Id,
		Category:    string(category),
		RetrievedAt: retrieved,
	})
}

func unitCriteria(unit WorkUnit, page, pageSize int) civicgov.Criteria {
	if unit.Temporal {
		return civicgov.DateRangeCriteria(unit.Start, unit.End, page, pageSize)
	}
	return civicgov.KeywordCriteria(unit.Term, page, pageSize)
}
