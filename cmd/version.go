package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/esview/pkg/version"
	"github.com/urfave/cli/v3"
)

// VersionCommand creates the version command
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "short",
				Usage: "Print only the version number",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			if c.Bool("short") {
				fmt.Fprintln(w, version.Version)
				return nil
			}
			fmt.Fprintln(w, version.BuildVersion())
			fmt.Fprintln(w, metaStyle.Render("JSON API "+version.APIVersion()))
			return nil
		},
	}
}
