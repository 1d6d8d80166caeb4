package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/rubiojr/esview/cmd"
	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "esview",
		Usage: "Browse, page through and export Elasticsearch indices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.WebCommand(),
			cmd.IndicesCommand(),
			cmd.StatsCommand(),
			cmd.DocsCommand(),
			cmd.ExportCommand(),
			cmd.VersionCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	log.Flush()
	if err != nil {
		stdlog.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		stdlog.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
