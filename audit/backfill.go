package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultEventIndex is where the discovery lambda's completion event sits in
// the execution history of the current workflow definition.
const DefaultEventIndex = 4

// ReplaceNotFound marks a successful discovery whose output carried neither
// an inline payload nor a replace reference.
const ReplaceNotFound = "REPLACE NOT FOUND"

type replaceRef struct {
	Bucket string `json:"Bucket"`
	Key    string `json:"Key"`
}

type discoverOutput struct {
	Payload json.RawMessage `json:"payload"`
	Replace *replaceRef     `json:"replace"`
	Meta    struct {
		Collection struct {
			Meta struct {
				DiscoverTF struct {
					QueuedGranulesCount *int `json:"queued_granules_count"`
				} `json:"discover_tf"`
			} `json:"meta"`
		} `json:"collection"`
	} `json:"meta"`
}

type replacedPayload struct {
	Payload struct {
		Granules []json.RawMessage `json:"granules"`
	} `json:"payload"`
}

// BackfillStats counts the outcomes of one backfill pass.
type BackfillStats struct {
	Counted int
	Skipped int
	Failed  int
}

// Backfiller recovers each discovery run's queued-granule count from its
// execution history, falling back to the object store when the lambda output
// was replaced by a bucket/key reference.
type Backfiller struct {
	history    Historian
	store      ObjectFetcher
	eventIndex int
	log        logrus.FieldLogger
}

func NewBackfiller(history Historian, store ObjectFetcher, eventIndex int, log logrus.FieldLogger) *Backfiller {
	if eventIndex <= 0 {
		eventIndex = DefaultEventIndex
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Backfiller{
		history:    history,
		store:      store,
		eventIndex: eventIndex,
		log:        log,
	}
}

// Run mutates each root's info in place, adding the queued-granule count and
// a fail annotation where the discovery lambda failed. A bad record never
// aborts the pass. The forest map itself is not mutated, so roots are safe
// to process in parallel.
func (b *Backfiller) Run(ctx context.Context, forest Forest) BackfillStats {
	results := make([]error, len(forest))

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.SetLimit(DefaultConcurrency)
	for i, ref := range forest.Refs() {
		tree := forest[ref]
		wg.Go(func() error {
			results[i] = b.backfillRoot(wgCtx, ref, tree.Info)
			return nil
		})
	}
	_ = wg.Wait()

	stats := BackfillStats{}
	for i, ref := range forest.Refs() {
		info := forest[ref].Info
		switch {
		case results[i] != nil:
			b.log.WithError(results[i]).WithField("execution", ref).Warning("Backfill failed")
			if info.Fail == "" {
				info.Fail = results[i].Error()
			}
			info.QueuedGranulesCount = Unknown
			stats.Failed++
		case info.Status == StatusRunning:
			stats.Skipped++
		default:
			stats.Counted++
		}
	}
	return stats
}

func (b *Backfiller) backfillRoot(ctx context.Context, ref string, info *Info) error {
	// Still running, so the discovery lambda has no outcome to inspect yet.
	if info.Status == StatusRunning {
		info.QueuedGranulesCount = Unknown
		return nil
	}

	events, err := b.history.GetExecutionHistory(ctx, ref)
	if err != nil {
		return &BackfillError{Ref: ref, Err: err}
	}

	event, err := b.completionEvent(events)
	if err != nil {
		return &BackfillError{Ref: ref, Err: err}
	}

	if event.Type == EventLambdaFailed {
		info.Fail = event.Cause
		info.QueuedGranulesCount = Unknown
		return nil
	}

	count, err := b.resolveCount(ctx, event.Output)
	if err != nil {
		return &BackfillError{Ref: ref, Err: err}
	}

	info.QueuedGranulesCount = count
	return nil
}

// completionEvent returns the discovery lambda's completion event. The
// configured index is tried first; if the workflow definition shifted and
// some other event sits there, the history is scanned for the first lambda
// completion instead.
func (b *Backfiller) completionEvent(events []HistoryEvent) (*HistoryEvent, error) {
	if b.eventIndex < len(events) {
		event := events[b.eventIndex]
		if event.Type == EventLambdaSucceeded || event.Type == EventLambdaFailed {
			return &event, nil
		}
	}

	for _, event := range events {
		if event.Type == EventLambdaSucceeded || event.Type == EventLambdaFailed {
			return &event, nil
		}
	}

	return nil, fmt.Errorf("no lambda completion event in %d history events", len(events))
}

func (b *Backfiller) resolveCount(ctx context.Context, rawOutput string) (string, error) {
	var output discoverOutput
	if err := json.Unmarshal([]byte(rawOutput), &output); err != nil {
		return "", fmt.Errorf("malformed lambda output: %w", err)
	}

	switch {
	case output.Payload != nil:
		count := output.Meta.Collection.Meta.DiscoverTF.QueuedGranulesCount
		if count == nil {
			return "", errors.New("lambda output carries a payload but no queued_granules_count")
		}
		return strconv.Itoa(*count), nil

	case output.Replace != nil:
		body, err := b.store.Fetch(ctx, output.Replace.Bucket, output.Replace.Key)
		if err != nil {
			return "", fmt.Errorf("fetching replaced payload: %w", err)
		}

		var replaced replacedPayload
		if err := json.Unmarshal(body, &replaced); err != nil {
			return "", fmt.Errorf("malformed replaced payload: %w", err)
		}
		return strconv.Itoa(len(replaced.Payload.Granules)), nil

	default:
		return ReplaceNotFound, nil
	}
}
