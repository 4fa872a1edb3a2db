package audit

import (
	"fmt"
	"io"
)

// ReportOptions control the report's verbosity.
type ReportOptions struct {
	IncludeChildren bool
	IncludeFailures bool
}

// WriteReport flattens the forest into tab-delimited text: one line per
// root, optionally followed by indented child and failure lines, with a
// blank line terminating each root's block. Pure formatting, no mutation.
func WriteReport(w io.Writer, forest Forest, opts ReportOptions) error {
	for _, ref := range forest.Refs() {
		tree := forest[ref]
		info := tree.Info

		count := info.QueuedGranulesCount
		if count == "" {
			count = Unknown
		}

		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			info.Start, info.Status, info.Duration, count, info.Collection, info.Provider)
		if err != nil {
			return err
		}

		if opts.IncludeChildren {
			for _, child := range tree.Child {
				for _, childInfo := range child {
					_, err = fmt.Fprintf(w, "\t%s\t%s\t%s\t%s\n",
						childInfo.Start, childInfo.Status, childInfo.Duration, childInfo.GranuleID)
					if err != nil {
						return err
					}
				}
			}
		}

		if opts.IncludeFailures && info.Fail != "" {
			if _, err = fmt.Fprintf(w, "\t%s\n", info.Fail); err != nil {
				return err
			}
		}

		if _, err = fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
