package audit

import "fmt"

// LookupError indicates an external collaborator (Step Functions, S3) was
// unreachable or returned a malformed shape. A LookupError on one of the two
// initial listing calls is fatal; everywhere else it is recorded on the
// affected record and the batch continues.
type LookupError struct {
	Op  string
	Ref string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s %q: %v", e.Op, e.Ref, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// EnrichmentError indicates an expected JSON field was absent or malformed
// while deriving a record's parent, granule or descriptive metadata. Fields
// resolved before the failure keep their values.
type EnrichmentError struct {
	Ref   string
	Field string
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s of %q: %v", e.Field, e.Ref, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// BackfillError indicates an unexpected event shape or an unreadable fallback
// object while recovering a queued-granule count.
type BackfillError struct {
	Ref string
	Err error
}

func (e *BackfillError) Error() string {
	return fmt.Sprintf("backfill %q: %v", e.Ref, e.Err)
}

func (e *BackfillError) Unwrap() error { return e.Err }
