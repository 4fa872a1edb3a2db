package audit

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many execution lookups run at once.
const DefaultConcurrency = 8

// Child pairs a child execution reference with its info snapshot.
type Child map[string]*Info

// Tree is one discovery-rooted tree: the root's info plus the ingest runs it
// spawned, in the order they were supplied.
type Tree struct {
	Info  *Info   `json:"info"`
	Child []Child `json:"child"`
}

// Forest maps discovery execution references to their trees.
type Forest map[string]*Tree

// Refs returns the root references in a stable order. A reloaded snapshot
// carries no insertion order, so reporting iterates lexicographically.
func (f Forest) Refs() []string {
	refs := make([]string, 0, len(f))
	for ref := range f {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// BuildStats counts what happened while merging the two listings.
type BuildStats struct {
	Roots     int
	Attached  int
	Synthetic int
	Failed    int
}

// TreeBuilder merges discovery and ingest records into a forest keyed by
// discovery execution reference, describing unlisted parents on demand.
type TreeBuilder struct {
	describer   Describer
	concurrency int
	log         logrus.FieldLogger
}

func NewTreeBuilder(describer Describer, concurrency int, log logrus.FieldLogger) *TreeBuilder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &TreeBuilder{
		describer:   describer,
		concurrency: concurrency,
		log:         log,
	}
}

// Build turns every discovery record into a root and attaches every ingest
// record under its parent. Parents missing from the listing window get
// exactly one synthetic root each, built from their describe payload.
//
// Parent descriptions are fetched on a bounded pool; the forest itself is
// assembled by a single merge pass so children keep their input order and
// two ingest runs sharing an unlisted parent land in the same root.
func (b *TreeBuilder) Build(ctx context.Context, discovers, ingests []*Execution) (Forest, BuildStats, error) {
	forest := make(Forest, len(discovers))
	stats := BuildStats{}

	for _, d := range discovers {
		forest[d.Ref] = &Tree{Info: d.Info(), Child: []Child{}}
	}

	descs := make([]*Description, len(ingests))
	errs := make([]error, len(ingests))

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.SetLimit(b.concurrency)
	for i, ing := range ingests {
		if ing.Parent == Unknown {
			continue
		}
		wg.Go(func() error {
			descs[i], errs[i] = b.describer.DescribeExecution(wgCtx, ing.Parent)
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, stats, err
	}

	for i, ing := range ingests {
		if ing.Parent == Unknown {
			b.log.WithField("execution", ing.Ref).Warning("Skipping ingest run with unresolved parent")
			stats.Failed++
			continue
		}

		if errs[i] != nil {
			err := &LookupError{Op: "describe", Ref: ing.Parent, Err: errs[i]}
			b.log.WithError(err).WithField("execution", ing.Ref).Warning("Cannot describe parent")
			b.annotate(ing, err)
			stats.Failed++

			// The parent may still be a listed root; attach the child so
			// the failure shows up in the report instead of vanishing.
			if tree, ok := forest[ing.Parent]; ok {
				tree.Child = append(tree.Child, Child{ing.Ref: ing.Info()})
				stats.Attached++
			}
			continue
		}

		ing.SetDescription(descs[i])
		if err := ing.ResolveMetadata(); err != nil {
			b.log.WithError(err).Warning("Descriptive metadata enrichment failed")
			b.annotate(ing, err)
			stats.Failed++
		}

		if tree, ok := forest[ing.Parent]; ok {
			tree.Child = append(tree.Child, Child{ing.Ref: ing.Info()})
			stats.Attached++
			continue
		}

		parent := NewExecutionFromDescription(descs[i])
		if err := parent.ResolveMetadata(); err != nil {
			b.log.WithError(err).Warning("Synthetic root enrichment failed")
			b.annotate(parent, err)
		}
		forest[ing.Parent] = &Tree{
			Info:  parent.Info(),
			Child: []Child{{ing.Ref: ing.Info()}},
		}
		stats.Attached++
		stats.Synthetic++
	}

	stats.Roots = len(forest)
	return forest, stats, nil
}

func (b *TreeBuilder) annotate(e *Execution, err error) {
	if e.FailureReason == "" {
		e.FailureReason = err.Error()
	}
}
