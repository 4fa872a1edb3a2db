package audit

import (
	"context"
	"time"
)

// ListedExecution is one entry of a workflow execution listing.
type ListedExecution struct {
	Name      string
	Ref       string
	Status    string
	StartDate time.Time
	StopDate  time.Time
}

// Description is the full description of one execution, including the raw
// input and output payloads the enricher derives metadata from.
type Description struct {
	Name      string
	Ref       string
	Status    string
	StartDate time.Time
	StopDate  time.Time
	Input     string
	Output    string
}

// HistoryEvent is one event of an execution history, reduced to the fields
// the backfill pass inspects.
type HistoryEvent struct {
	Type   string
	Output string
	Cause  string
}

const (
	EventLambdaSucceeded = "LambdaFunctionSucceeded"
	EventLambdaFailed    = "LambdaFunctionFailed"
)

//go:generate mockery --name=Lister --inpackage
type Lister interface {
	ListExecutions(ctx context.Context, stateMachineARN string, limit int32) ([]ListedExecution, error)
}

//go:generate mockery --name=Describer --inpackage
type Describer interface {
	DescribeExecution(ctx context.Context, ref string) (*Description, error)
}

//go:generate mockery --name=Historian --inpackage
type Historian interface {
	GetExecutionHistory(ctx context.Context, ref string) ([]HistoryEvent, error)
}

// ObjectFetcher retrieves the object a `replace` reference points at when a
// lambda output was too large to be returned inline.
//
//go:generate mockery --name=ObjectFetcher --inpackage
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// WorkflowClient bundles the execution lookups the pipeline needs from the
// workflow orchestrator.
//
//go:generate mockery --name=WorkflowClient --inpackage
type WorkflowClient interface {
	Lister
	Describer
	Historian
}
