package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ghrcdaac/cumulus-audit/audit"
	"github.com/ghrcdaac/cumulus-audit/common"
	"github.com/ghrcdaac/cumulus-audit/store"
	"github.com/ghrcdaac/cumulus-audit/workflow"
)

type StatusCommand struct {
	configOptions

	OutputDir string `long:"output-dir" env:"AUDIT_OUTPUT_DIR" description:"Override the configured output directory"`
}

func (c *StatusCommand) Execute(cliCtx *cli.Context) {
	if err := c.loadConfig(); err != nil {
		logrus.Fatalln(err)
	}

	config := c.getConfig()
	if err := config.Validate(); err != nil {
		logrus.Fatalln(err)
	}
	if c.OutputDir != "" {
		config.OutputDir = c.OutputDir
	}

	workflows, err := workflow.NewClient(&config.AWS)
	if err != nil {
		logrus.WithError(err).Fatalln("Cannot build Step Functions client")
	}

	objects, err := store.NewS3(&config.AWS)
	if err != nil {
		logrus.WithError(err).Fatalln("Cannot build S3 client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline := audit.NewPipeline(workflows, objects, pipelineConfig(config), logrus.StandardLogger())

	summary, err := pipeline.Run(ctx)
	if err != nil {
		logrus.WithError(err).Fatalln("Audit run failed")
	}

	for _, path := range summary.SnapshotFiles {
		logrus.WithField("file", path).Info("Snapshot written")
	}
	logrus.WithField("file", summary.ReportFile).Info("Report written")

	renderSummary(summary)
}

func pipelineConfig(config *common.Config) audit.PipelineConfig {
	return audit.PipelineConfig{
		DiscoverStateMachineARN: config.Discover.StateMachineARN,
		DiscoverLimit:           config.Discover.GetLimit(),
		IngestStateMachineARN:   config.Ingest.StateMachineARN,
		IngestLimit:             config.Ingest.GetLimit(),
		OutputDir:               config.OutputDir,
		Concurrency:             config.Concurrency,
		EventIndex:              config.EventIndex,
		FailureThreshold:        config.FailureThreshold,
		Report: audit.ReportOptions{
			IncludeChildren: config.Report.IncludeChildren,
			IncludeFailures: config.Report.IncludeFailures,
		},
	}
}

func renderSummary(summary *audit.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"discover executions", summary.Discovers},
		{"ingest executions", summary.Ingests},
		{"forest roots", summary.Roots},
		{"synthetic roots", summary.SyntheticRoots},
		{"enrichment failures", summary.EnrichmentFailures},
		{"backfill failures", summary.BackfillFailures},
	})
	t.Render()
}

func init() {
	common.RegisterCommand2(
		"status",
		"audit discover/ingest workflow executions and write snapshots and a report",
		&StatusCommand{},
	)
}
