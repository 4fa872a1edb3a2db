//go:build !integration

package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	discoverRefA = "arn:aws:states:us-west-2:123456789012:execution:DiscoverGranules:run-a"
	discoverRefB = "arn:aws:states:us-west-2:123456789012:execution:DiscoverGranules:run-b"
	discoverRefC = "arn:aws:states:us-west-2:123456789012:execution:DiscoverGranules:run-c"
)

const discoverInput = `{"meta": {
	"collection": {"name": "goesrpltavirisng", "meta": {"provider_path": "/data"}},
	"provider": {"protocol": "https", "host": "example.com"}
}}`

func newDiscoverExecution(ref, status string) *Execution {
	return NewExecution(ListedExecution{
		Name:      ref,
		Ref:       ref,
		Status:    status,
		StartDate: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
	})
}

func newChildOf(ref, parentRef string) *Execution {
	e := NewExecution(ListedExecution{
		Name:      ref,
		Ref:       ref,
		Status:    StatusSucceeded,
		StartDate: time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC),
	})
	e.Parent = parentRef
	return e
}

func discoverDescription(ref string) *Description {
	return &Description{
		Name:      ref,
		Ref:       ref,
		Status:    StatusSucceeded,
		StartDate: time.Date(2021, 6, 1, 11, 0, 0, 0, time.UTC),
		StopDate:  time.Date(2021, 6, 1, 11, 5, 0, 0, time.UTC),
		Input:     discoverInput,
	}
}

func childRef(t *testing.T, child Child) string {
	t.Helper()
	require.Len(t, child, 1)
	for ref := range child {
		return ref
	}
	return ""
}

func TestBuildForest(t *testing.T) {
	discoverA := newDiscoverExecution(discoverRefA, StatusRunning)
	discoverB := newDiscoverExecution(discoverRefB, StatusSucceeded)

	child1 := newChildOf("ref-child-1", discoverRefB)
	child2 := newChildOf("ref-child-2", discoverRefB)
	child3 := newChildOf("ref-child-3", discoverRefC)

	describer := new(MockDescriber)
	describer.On("DescribeExecution", mock.Anything, discoverRefB).
		Return(discoverDescription(discoverRefB), nil)
	describer.On("DescribeExecution", mock.Anything, discoverRefC).
		Return(discoverDescription(discoverRefC), nil)

	builder := NewTreeBuilder(describer, 2, nil)
	forest, stats, err := builder.Build(
		context.Background(),
		[]*Execution{discoverA, discoverB},
		[]*Execution{child1, child2, child3},
	)
	require.NoError(t, err)

	// Two listed roots plus one synthesized for the unlisted parent.
	require.Len(t, forest, 3)
	assert.Equal(t, 3, stats.Roots)
	assert.Equal(t, 3, stats.Attached)
	assert.Equal(t, 1, stats.Synthetic)
	assert.Equal(t, 0, stats.Failed)

	assert.Empty(t, forest[discoverRefA].Child)

	childrenB := forest[discoverRefB].Child
	require.Len(t, childrenB, 2)
	assert.Equal(t, "ref-child-1", childRef(t, childrenB[0]))
	assert.Equal(t, "ref-child-2", childRef(t, childrenB[1]))

	synthetic := forest[discoverRefC]
	require.NotNil(t, synthetic)
	require.Len(t, synthetic.Child, 1)
	assert.Equal(t, "ref-child-3", childRef(t, synthetic.Child[0]))
	assert.Equal(t, "goesrpltavirisng", synthetic.Info.Collection)
	assert.Equal(t, "https://example.com/data", synthetic.Info.Provider)

	// Children inherit descriptive metadata from their parent's payload.
	assert.Equal(t, "goesrpltavirisng", childrenB[0]["ref-child-1"].Collection)
}

func TestBuildForestSharedUnlistedParent(t *testing.T) {
	describer := new(MockDescriber)
	describer.On("DescribeExecution", mock.Anything, discoverRefC).
		Return(discoverDescription(discoverRefC), nil)

	children := make([]*Execution, 5)
	for i := range children {
		children[i] = newChildOf(fmt.Sprintf("ref-child-%d", i), discoverRefC)
	}

	builder := NewTreeBuilder(describer, 4, nil)
	forest, stats, err := builder.Build(context.Background(), nil, children)
	require.NoError(t, err)

	// All five children merge into a single synthetic root.
	require.Len(t, forest, 1)
	assert.Equal(t, 1, stats.Synthetic)
	require.Len(t, forest[discoverRefC].Child, 5)
	for i, child := range forest[discoverRefC].Child {
		assert.Equal(t, fmt.Sprintf("ref-child-%d", i), childRef(t, child))
	}
}

func TestBuildForestUnresolvedParent(t *testing.T) {
	describer := new(MockDescriber)

	orphan := NewExecution(ListedExecution{Name: "orphan", Ref: "ref-orphan", Status: StatusSucceeded})

	builder := NewTreeBuilder(describer, 1, nil)
	forest, stats, err := builder.Build(context.Background(), nil, []*Execution{orphan})
	require.NoError(t, err)

	assert.Empty(t, forest)
	assert.Equal(t, 1, stats.Failed)
	describer.AssertNotCalled(t, "DescribeExecution", mock.Anything, mock.Anything)
}

func TestBuildForestDescribeFailure(t *testing.T) {
	describer := new(MockDescriber)
	describer.On("DescribeExecution", mock.Anything, discoverRefB).
		Return(nil, errors.New("connection reset"))

	discoverB := newDiscoverExecution(discoverRefB, StatusSucceeded)
	child := newChildOf("ref-child-1", discoverRefB)

	builder := NewTreeBuilder(describer, 1, nil)
	forest, stats, err := builder.Build(context.Background(), []*Execution{discoverB}, []*Execution{child})
	require.NoError(t, err)

	// The child still attaches to its listed parent, carrying the failure.
	require.Len(t, forest, 1)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, forest[discoverRefB].Child, 1)
	assert.Contains(t, forest[discoverRefB].Child[0]["ref-child-1"].Fail, "connection reset")
}
