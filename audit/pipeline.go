package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultFailureThreshold is the lookup-failure ratio above which a run is
// considered hopeless and aborted.
const DefaultFailureThreshold = 0.5

// PipelineConfig carries everything one audit run needs. It is built once
// from the configuration file and passed in explicitly.
type PipelineConfig struct {
	DiscoverStateMachineARN string
	DiscoverLimit           int32
	IngestStateMachineARN   string
	IngestLimit             int32

	OutputDir        string
	Concurrency      int
	EventIndex       int
	FailureThreshold float64

	Report ReportOptions
}

// Summary is what an audit run reports back: how much was processed, how
// much of it failed, and which artifacts were written.
type Summary struct {
	Discovers int
	Ingests   int

	Roots          int
	SyntheticRoots int

	EnrichmentFailures int
	BackfillFailures   int

	SnapshotFiles []string
	ReportFile    string
}

// Pipeline runs the audit end to end: list both workflows, build the
// relation forest, snapshot it, backfill queued-granule counts, snapshot
// again and render the report. Stages are strictly sequential; per-record
// work inside a stage runs on a bounded pool.
type Pipeline struct {
	workflows WorkflowClient
	store     ObjectFetcher
	cfg       PipelineConfig
	log       logrus.FieldLogger
}

func NewPipeline(workflows WorkflowClient, store ObjectFetcher, cfg PipelineConfig, log logrus.FieldLogger) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Pipeline{
		workflows: workflows,
		store:     store,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes the full audit. Per-record failures are annotated and
// counted, never fatal; only an unusable listing or a majority of failed
// lookups aborts the run. Both snapshots and the report are written even if
// individual records carry failure annotations.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	discovers, err := p.listRecords(ctx, p.cfg.DiscoverStateMachineARN, p.cfg.DiscoverLimit)
	if err != nil {
		return nil, err
	}
	ingests, err := p.listRecords(ctx, p.cfg.IngestStateMachineARN, p.cfg.IngestLimit)
	if err != nil {
		return nil, err
	}
	summary.Discovers = len(discovers)
	summary.Ingests = len(ingests)

	p.log.WithFields(logrus.Fields{
		"discovers": len(discovers),
		"ingests":   len(ingests),
	}).Info("Building execution records")

	failures, err := p.enrichRecords(ctx, discovers, ingests)
	if err != nil {
		return nil, err
	}
	summary.EnrichmentFailures = failures

	builder := NewTreeBuilder(p.workflows, p.cfg.Concurrency, p.log)
	forest, stats, err := builder.Build(ctx, discovers, ingests)
	if err != nil {
		return nil, err
	}
	summary.Roots = stats.Roots
	summary.SyntheticRoots = stats.Synthetic
	summary.EnrichmentFailures += stats.Failed

	path, err := WriteSnapshot(p.cfg.OutputDir, "debug_data", forest)
	if err != nil {
		return nil, fmt.Errorf("writing post-build snapshot: %w", err)
	}
	summary.SnapshotFiles = append(summary.SnapshotFiles, path)

	backfiller := NewBackfiller(p.workflows, p.store, p.cfg.EventIndex, p.log)
	backfillStats := backfiller.Run(ctx, forest)
	summary.BackfillFailures = backfillStats.Failed

	path, err = WriteSnapshot(p.cfg.OutputDir, "raw_data", forest)
	if err != nil {
		return nil, fmt.Errorf("writing post-backfill snapshot: %w", err)
	}
	summary.SnapshotFiles = append(summary.SnapshotFiles, path)

	summary.ReportFile, err = WriteReportFile(p.cfg.OutputDir, "final", forest, p.cfg.Report)
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	return summary, nil
}

func (p *Pipeline) listRecords(ctx context.Context, stateMachineARN string, limit int32) ([]*Execution, error) {
	items, err := p.workflows.ListExecutions(ctx, stateMachineARN, limit)
	if err != nil {
		// Nothing to enrich without the listing.
		return nil, &LookupError{Op: "list", Ref: stateMachineARN, Err: err}
	}

	records := make([]*Execution, 0, len(items))
	for _, item := range items {
		records = append(records, NewExecution(item))
	}
	return records, nil
}

// enrichRecords describes every record and derives what can be derived from
// its own payloads: descriptive metadata for discovery runs, parent and
// granule for ingest runs. Returns how many records failed enrichment.
func (p *Pipeline) enrichRecords(ctx context.Context, discovers, ingests []*Execution) (int, error) {
	all := make([]*Execution, 0, len(discovers)+len(ingests))
	all = append(all, discovers...)
	all = append(all, ingests...)

	recordErrs := make([]error, len(all))

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.SetLimit(p.cfg.Concurrency)
	for i, record := range all {
		isDiscover := i < len(discovers)
		wg.Go(func() error {
			desc, err := p.workflows.DescribeExecution(wgCtx, record.Ref)
			if err != nil {
				recordErrs[i] = &LookupError{Op: "describe", Ref: record.Ref, Err: err}
				return nil
			}

			record.SetDescription(desc)
			if isDiscover {
				recordErrs[i] = record.ResolveMetadata()
				return nil
			}

			var merr *multierror.Error
			merr = multierror.Append(merr, record.ResolveParent())
			merr = multierror.Append(merr, record.ResolveGranuleID())
			recordErrs[i] = merr.ErrorOrNil()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return 0, err
	}

	failed := 0
	unreachable := 0
	for i, record := range all {
		err := recordErrs[i]
		if err == nil {
			continue
		}

		failed++
		var lookupErr *LookupError
		if errors.As(err, &lookupErr) {
			unreachable++
		}

		p.log.WithError(err).WithField("execution", record.Ref).Warning("Record enrichment failed")
		if record.FailureReason == "" {
			record.FailureReason = err.Error()
		}
	}

	if len(all) > 0 && float64(unreachable)/float64(len(all)) > p.cfg.FailureThreshold {
		return failed, fmt.Errorf(
			"workflow orchestrator unreachable for %d of %d records, aborting the run",
			unreachable, len(all))
	}

	return failed, nil
}
