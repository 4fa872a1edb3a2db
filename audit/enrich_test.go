//go:build !integration

package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ingestRef = "arn:aws:states:us-west-2:123456789012:execution:IngestGranule:child-1"

func newIngestExecution(status string) *Execution {
	return NewExecution(ListedExecution{
		Name:   "child-1",
		Ref:    ingestRef,
		Status: status,
	})
}

func TestResolveParent(t *testing.T) {
	tests := map[string]struct {
		desc           *Description
		expectedParent string
		expectErr      bool
	}{
		"derives the parent from the input payload": {
			desc: &Description{
				Input: `{"payload": {"meta": {
					"source": "arn:aws:states:us-west-2:123456789012:stateMachine:DiscoverGranules",
					"execution_name": "parent-1"
				}}}`,
			},
			expectedParent: "arn:aws:states:us-west-2:123456789012:execution:DiscoverGranules:parent-1",
		},
		"no description payload leaves the parent unresolved": {
			desc:           nil,
			expectedParent: Unknown,
		},
		"malformed input payload": {
			desc:           &Description{Input: `{not json`},
			expectedParent: Unknown,
			expectErr:      true,
		},
		"input payload without the source field": {
			desc:           &Description{Input: `{"payload": {"meta": {"execution_name": "parent-1"}}}`},
			expectedParent: Unknown,
			expectErr:      true,
		},
		"record referencing itself as parent": {
			desc: &Description{
				Input: `{"payload": {"meta": {
					"source": "arn:aws:states:us-west-2:123456789012:stateMachine:IngestGranule",
					"execution_name": "child-1"
				}}}`,
			},
			expectedParent: Unknown,
			expectErr:      true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newIngestExecution(StatusSucceeded)
			e.SetDescription(tt.desc)

			err := e.ResolveParent()
			if tt.expectErr {
				var enrichErr *EnrichmentError
				require.ErrorAs(t, err, &enrichErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectedParent, e.Parent)
		})
	}
}

func TestResolveGranuleID(t *testing.T) {
	output := `{"meta": {"cnmResponse": {"identifier": "granule-42"}}}`

	tests := map[string]struct {
		status       string
		output       string
		expected     string
		expectErr    bool
	}{
		"succeeded execution with an identifier": {
			status:   StatusSucceeded,
			output:   output,
			expected: "granule-42",
		},
		"running execution stays unknown": {
			status:   StatusRunning,
			output:   output,
			expected: Unknown,
		},
		"failed execution stays unknown": {
			status:   "FAILED",
			output:   output,
			expected: Unknown,
		},
		"succeeded execution with malformed output": {
			status:    StatusSucceeded,
			output:    `not json`,
			expected:  Unknown,
			expectErr: true,
		},
		"succeeded execution without an identifier": {
			status:    StatusSucceeded,
			output:    `{"meta": {}}`,
			expected:  Unknown,
			expectErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newIngestExecution(tt.status)
			e.SetDescription(&Description{Status: tt.status, Output: tt.output})

			err := e.ResolveGranuleID()
			if tt.expectErr {
				var enrichErr *EnrichmentError
				require.ErrorAs(t, err, &enrichErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, e.GranuleID)
		})
	}
}

func TestResolveMetadata(t *testing.T) {
	input := func(providerPath string) string {
		return `{"meta": {
			"collection": {"name": "goesrpltavirisng", "meta": {"provider_path": "` + providerPath + `"}},
			"provider": {"protocol": "https", "host": "example.com"}
		}}`
	}

	tests := map[string]struct {
		input              string
		expectedCollection string
		expectedProvider   string
		expectErr          bool
	}{
		"provider path with a leading slash": {
			input:              input("/data"),
			expectedCollection: "goesrpltavirisng",
			expectedProvider:   "https://example.com/data",
		},
		"provider path without a leading slash": {
			input:              input("data"),
			expectedCollection: "goesrpltavirisng",
			expectedProvider:   "https://example.com/data",
		},
		"malformed input payload": {
			input:              `]`,
			expectedCollection: Unknown,
			expectedProvider:   Unknown,
			expectErr:          true,
		},
		"input payload without provider": {
			input:              `{"meta": {"collection": {"name": "goesrpltavirisng"}}}`,
			expectedCollection: Unknown,
			expectedProvider:   Unknown,
			expectErr:          true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newIngestExecution(StatusSucceeded)
			e.SetDescription(&Description{Input: tt.input})

			err := e.ResolveMetadata()
			if tt.expectErr {
				var enrichErr *EnrichmentError
				require.ErrorAs(t, err, &enrichErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectedCollection, e.Collection)
			assert.Equal(t, tt.expectedProvider, e.Provider)
		})
	}
}
