package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
	"github.com/rubiojr/esview/pkg/viewer"
	"github.com/urfave/cli/v3"
)

// IndicesCommand creates the indices command
func IndicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "indices",
		Usage: "List the indices of a cluster",
		Flags: clusterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadCommandConfig(c)
			if err != nil {
				return err
			}
			conn, err := commandConnection(c, cfg)
			if err != nil {
				return err
			}
			return listIndices(ctx, c.Root().Writer, newViewer(cfg), conn)
		},
	}
}

// listIndices prints the index names of the cluster, newest first.
func listIndices(ctx context.Context, w io.Writer, svc *viewer.Service, conn core.Connection) error {
	names, diags, err := svc.Indices(ctx, conn)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, titleStyle.Render("Indices"))
	fmt.Fprintln(w, urlStyle.Render(conn.URL()))
	printDiagnostics(w, diags)

	if len(names) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No indices found."))
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(w, itemStyle.Render(name))
	}
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d indices", len(names))))
	return nil
}

func printDiagnostics(w io.Writer, diags []*elastic.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("warning: %s", d)))
	}
}
