package common

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultListLimit        = 100
	DefaultConcurrency      = 8
	DefaultEventIndex       = 4
	DefaultFailureThreshold = 0.5
)

// WorkflowConfig identifies one state machine to audit and how many of its
// most recent executions to pull.
type WorkflowConfig struct {
	StateMachineARN string `toml:"state_machine_arn" json:"state_machine_arn" long:"state-machine-arn" description:"State machine ARN"`
	Limit           int    `toml:"limit,omitzero" json:"limit" long:"limit" description:"Listing limit"`
}

func (w *WorkflowConfig) GetLimit() int32 {
	if w.Limit > 0 {
		return int32(w.Limit)
	}
	return DefaultListLimit
}

// ReportConfig holds the two report verbosity switches.
type ReportConfig struct {
	IncludeChildren bool `toml:"include_children" json:"include_children" long:"include-children" description:"Append a line per spawned ingest run"`
	IncludeFailures bool `toml:"include_failures" json:"include_failures" long:"include-failures" description:"Append failure causes"`
}

// AWSConfig carries credentials and endpoint overrides for the Step
// Functions and S3 clients. All fields are optional; the SDK's default
// credential chain applies when the keys are empty.
type AWSConfig struct {
	Region    string `toml:"region,omitempty" json:"region" long:"region" env:"AWS_REGION_OVERRIDE" description:"AWS region"`
	Endpoint  string `toml:"endpoint,omitempty" json:"endpoint" long:"endpoint" description:"Endpoint override, mainly for testing"`
	AccessKey string `toml:"access_key,omitempty" json:"access_key" long:"access-key" env:"AUDIT_AWS_ACCESS_KEY" description:"Static access key"`
	SecretKey string `toml:"secret_key,omitempty" json:"secret_key" long:"secret-key" env:"AUDIT_AWS_SECRET_KEY" description:"Static secret key"`
}

// Config is the audit tool's configuration, read once at startup and passed
// into each component explicitly.
type Config struct {
	OutputDir        string  `toml:"output_dir,omitempty" json:"output_dir" long:"output-dir" description:"Directory snapshots and reports are written to"`
	Concurrency      int     `toml:"concurrency,omitzero" json:"concurrency" long:"concurrency" description:"Bound on parallel execution lookups"`
	EventIndex       int     `toml:"event_index,omitzero" json:"event_index" long:"event-index" description:"History position of the discovery lambda completion event"`
	FailureThreshold float64 `toml:"failure_threshold,omitzero" json:"failure_threshold" long:"failure-threshold" description:"Lookup-failure ratio above which the run aborts"`

	Discover WorkflowConfig `toml:"discover" json:"discover"`
	Ingest   WorkflowConfig `toml:"ingest" json:"ingest"`
	Report   ReportConfig   `toml:"report" json:"report"`
	AWS      AWSConfig      `toml:"aws" json:"aws"`

	ModTime time.Time `toml:"-" json:"-"`
	Loaded  bool      `toml:"-" json:"-"`
}

func NewConfig() *Config {
	return &Config{
		OutputDir:        ".",
		Concurrency:      DefaultConcurrency,
		EventIndex:       DefaultEventIndex,
		FailureThreshold: DefaultFailureThreshold,
	}
}

func (c *Config) LoadConfig(configFile string) error {
	info, err := os.Stat(configFile)

	// permission denied is soft error
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	if _, err = toml.DecodeFile(configFile, c); err != nil {
		return err
	}

	c.ModTime = info.ModTime()
	c.Loaded = true
	return nil
}

// Validate checks the fields the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Discover.StateMachineARN == "" {
		return fmt.Errorf("discover state_machine_arn is required")
	}
	if c.Ingest.StateMachineARN == "" {
		return fmt.Errorf("ingest state_machine_arn is required")
	}
	return nil
}
