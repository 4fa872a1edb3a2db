package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The workflow engine hands a spawned ingest run its parent's state machine
// reference inside the input payload. Substituting the stateMachine token
// yields the execution reference prefix the parent's execution name is
// appended to.
const (
	stateMachineToken = "stateMachine"
	executionToken    = "execution"
)

var errNoField = errors.New("field absent or empty")

type ingestInput struct {
	Payload struct {
		Meta struct {
			Source        string `json:"source"`
			ExecutionName string `json:"execution_name"`
		} `json:"meta"`
	} `json:"payload"`
}

type workflowInput struct {
	Meta struct {
		Collection struct {
			Name string `json:"name"`
			Meta struct {
				ProviderPath string `json:"provider_path"`
			} `json:"meta"`
		} `json:"collection"`
		Provider struct {
			Protocol string `json:"protocol"`
			Host     string `json:"host"`
		} `json:"provider"`
	} `json:"meta"`
}

type workflowOutput struct {
	Meta struct {
		CNMResponse struct {
			Identifier string `json:"identifier"`
		} `json:"cnmResponse"`
	} `json:"meta"`
}

// ResolveParent derives the parent execution reference from the run's own
// input payload. Records without a description payload are left untouched;
// a malformed payload is an EnrichmentError for this record only.
func (e *Execution) ResolveParent() error {
	if e.desc == nil {
		return nil
	}

	var in ingestInput
	if err := json.Unmarshal([]byte(e.desc.Input), &in); err != nil {
		return &EnrichmentError{Ref: e.Ref, Field: "parent", Err: err}
	}

	source := in.Payload.Meta.Source
	name := in.Payload.Meta.ExecutionName
	if source == "" || name == "" {
		return &EnrichmentError{Ref: e.Ref, Field: "parent", Err: errNoField}
	}

	parent := strings.Replace(source, stateMachineToken, executionToken, 1) + ":" + name
	if parent == e.Ref {
		return &EnrichmentError{Ref: e.Ref, Field: "parent", Err: errors.New("record references itself as parent")}
	}

	e.Parent = parent
	return nil
}

// ResolveGranuleID reads the granule identifier from the run's output
// payload. Only terminal, successful runs carry one; for any other status
// the identifier stays Unknown.
func (e *Execution) ResolveGranuleID() error {
	if e.desc == nil || e.Status != StatusSucceeded {
		return nil
	}

	var out workflowOutput
	if err := json.Unmarshal([]byte(e.desc.Output), &out); err != nil {
		return &EnrichmentError{Ref: e.Ref, Field: "granuleId", Err: err}
	}
	if out.Meta.CNMResponse.Identifier == "" {
		return &EnrichmentError{Ref: e.Ref, Field: "granuleId", Err: errNoField}
	}

	e.GranuleID = out.Meta.CNMResponse.Identifier
	return nil
}

// ResolveMetadata derives the collection name and the provider URI from the
// input payload. The stored provider path may or may not carry a leading
// slash, so at most one is stripped before joining.
func (e *Execution) ResolveMetadata() error {
	if e.desc == nil {
		return nil
	}

	var in workflowInput
	if err := json.Unmarshal([]byte(e.desc.Input), &in); err != nil {
		return &EnrichmentError{Ref: e.Ref, Field: "metadata", Err: err}
	}

	meta := in.Meta
	if meta.Collection.Name == "" || meta.Provider.Protocol == "" || meta.Provider.Host == "" {
		return &EnrichmentError{Ref: e.Ref, Field: "metadata", Err: errNoField}
	}

	e.Collection = meta.Collection.Name
	e.Provider = fmt.Sprintf(
		"%s://%s/%s",
		meta.Provider.Protocol,
		meta.Provider.Host,
		strings.TrimPrefix(meta.Collection.Meta.ProviderPath, "/"),
	)
	return nil
}
