package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/viewer"
	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show the statistics of an index",
		ArgsUsage: "<index>",
		Flags:     clusterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			index := c.Args().First()
			if index == "" {
				return errors.New("index name required")
			}
			cfg, err := loadCommandConfig(c)
			if err != nil {
				return err
			}
			conn, err := commandConnection(c, cfg)
			if err != nil {
				return err
			}
			return showStats(ctx, c.Root().Writer, newViewer(cfg), conn, index)
		},
	}
}

// showStats prints the five index counters.
func showStats(ctx context.Context, w io.Writer, svc *viewer.Service, conn core.Connection, index string) error {
	stats, diags, err := svc.Stats(ctx, conn, index)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Index: %s", index)))
	fmt.Fprintln(w, metaStyle.Render(conn.URL()))
	printDiagnostics(w, diags)

	if stats == nil {
		fmt.Fprintln(w, noDataStyle.Render("Statistics unavailable."))
		return nil
	}

	fmt.Fprintln(w, headerStyle.Render("Statistics"))
	for _, f := range stats.Fields() {
		fmt.Fprintln(w, itemStyle.Render(fmt.Sprintf("%-20s %s", statLabel(f.Label)+":", statValue(f.Value))))
	}
	return nil
}
