package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/pager"
	"github.com/rubiojr/esview/pkg/viewer"
	"github.com/urfave/cli/v3"
)

// DocsCommand creates the docs command
func DocsCommand() *cli.Command {
	flags := append(clusterFlags(),
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page to print, starting at 1",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Documents per page (default: default_page_size)",
		},
	)

	return &cli.Command{
		Name:      "docs",
		Usage:     "Print one page of documents from an index",
		ArgsUsage: "<index>",
		Flags:     flags,
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

			size := cfg.DefaultPageSize
			if c.IsSet("size") {
				size = c.Int("size")
			}
			if size < 1 || c.Int("page") < 1 {
				return errors.New("page and size must be positive")
			}
			state := pager.State{Page: c.Int("page"), PageSize: size}
			return showDocs(ctx, c.Root().Writer, newViewer(cfg), conn, index, state)
		},
	}
}

// showDocs prints the documents of one page, field by field. A page past the
// end prints the last page.
func showDocs(ctx context.Context, w io.Writer, svc *viewer.Service, conn core.Connection, index string, state pager.State) error {
	view, err := svc.Browse(ctx, conn, index, state, false)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Index: %s", index)))
	fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("%s  type %s", conn.URL(), view.DocType)))
	printDiagnostics(w, view.Diagnostics)

	if view.Rows() == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No documents found."))
		return nil
	}

	for i, doc := range view.Set.Documents[view.Start:view.End] {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("#%d", view.Start+i+1)))
		fmt.Fprintln(w, strings.TrimRight(core.FormatFields(doc), "\n"))
	}

	summary := fmt.Sprintf("Page %d / %d, rows %d to %d of %d (%d found)",
		view.State.Page, view.TotalPages, view.Start+1, view.End, view.Rows(), view.Set.Total)
	fmt.Fprintln(w, summaryStyle.Render(summary))
	return nil
}
