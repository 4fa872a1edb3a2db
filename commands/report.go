package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/ghrcdaac/cumulus-audit/audit"
	"github.com/ghrcdaac/cumulus-audit/common"
	"github.com/ghrcdaac/cumulus-audit/store"
	"github.com/ghrcdaac/cumulus-audit/workflow"
)

// ReportCommand renders a report from a previously written snapshot, with an
// optional fresh backfill pass, so a report can be regenerated without
// re-listing the workflows.
type ReportCommand struct {
	configOptions

	Snapshot  string `short:"s" long:"snapshot" description:"Snapshot file to render"`
	Backfill  bool   `long:"backfill" description:"Re-run the metadata backfill before rendering"`
	OutputDir string `long:"output-dir" env:"AUDIT_OUTPUT_DIR" description:"Override the configured output directory"`
}

func (c *ReportCommand) Execute(cliCtx *cli.Context) {
	if err := c.loadConfig(); err != nil {
		logrus.Fatalln(err)
	}

	config := c.getConfig()
	if c.OutputDir != "" {
		config.OutputDir = c.OutputDir
	}

	if c.Snapshot == "" {
		logrus.Fatalln("A snapshot file is required, pass one with --snapshot")
	}

	forest, err := audit.LoadSnapshot(c.Snapshot)
	if err != nil {
		logrus.WithError(err).Fatalln("Cannot load snapshot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if c.Backfill {
		workflows, err := workflow.NewClient(&config.AWS)
		if err != nil {
			logrus.WithError(err).Fatalln("Cannot build Step Functions client")
		}

		objects, err := store.NewS3(&config.AWS)
		if err != nil {
			logrus.WithError(err).Fatalln("Cannot build S3 client")
		}

		backfiller := audit.NewBackfiller(workflows, objects, config.EventIndex, logrus.StandardLogger())
		stats := backfiller.Run(ctx, forest)
		logrus.WithFields(logrus.Fields{
			"counted": stats.Counted,
			"skipped": stats.Skipped,
			"failed":  stats.Failed,
		}).Info("Backfill finished")

		path, err := audit.WriteSnapshot(config.OutputDir, "raw_data", forest)
		if err != nil {
			logrus.WithError(err).Fatalln("Cannot write snapshot")
		}
		logrus.WithField("file", path).Info("Snapshot written")
	}

	opts := audit.ReportOptions{
		IncludeChildren: config.Report.IncludeChildren,
		IncludeFailures: config.Report.IncludeFailures,
	}

	path, err := audit.WriteReportFile(config.OutputDir, "final", forest, opts)
	if err != nil {
		logrus.WithError(err).Fatalln("Cannot write report")
	}
	logrus.WithField("file", path).Info("Report written")
}

func init() {
	common.RegisterCommand2(
		"report",
		"render a status report from an existing snapshot file",
		&ReportCommand{},
	)
}
