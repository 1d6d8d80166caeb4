package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/export"
	"github.com/rubiojr/esview/pkg/viewer"
	"github.com/urfave/cli/v3"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the documents of an index to JSON and CSV files",
		ArgsUsage: "<index>",
		Flags: append(clusterFlags(),
			&cli.StringSliceFlag{
				Name:  "format",
				Usage: "Export format, json or csv (repeatable, default: both)",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory",
				Value: ".",
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			index := c.Args().First()
			if index == "" {
				return errors.New("index name required")
			}

			formats := export.Formats
			if names := c.StringSlice("format"); len(names) > 0 {
				formats = nil
				for _, name := range names {
					f, err := export.ParseFormat(name)
					if err != nil {
						return err
					}
					formats = append(formats, f)
				}
			}

			cfg, err := loadCommandConfig(c)
			if err != nil {
				return err
			}
			conn, err := commandConnection(c, cfg)
			if err != nil {
				return err
			}
			return exportIndex(ctx, c.Root().Writer, newViewer(cfg), conn, index, c.String("dir"), formats)
		},
	}
}

// exportIndex fetches index once and writes one file per format into dir.
func exportIndex(ctx context.Context, w io.Writer, svc *viewer.Service, conn core.Connection, index, dir string, formats []export.Format) error {
	res, err := svc.Fetch(ctx, conn, index)
	if err != nil {
		return err
	}
	printDiagnostics(w, res.Diagnostics)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, f := range formats {
		path := filepath.Join(dir, f.Filename(index))
		if err := writeExportFile(path, f, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render("wrote"), path)
	}
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d of %d documents exported", res.Set.Len(), res.Set.Total)))
	return nil
}

func writeExportFile(path string, f export.Format, res *viewer.Result) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if f == export.FormatCSV {
		// The table is already normalized.
		err = export.WriteCSV(file, res.Table)
	} else {
		err = export.Write(file, f, res.Set)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
