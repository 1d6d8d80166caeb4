package cmd

import (
	"fmt"
	"strconv"

	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
	"github.com/rubiojr/esview/pkg/viewer"
	"github.com/urfave/cli/v3"
)

// clusterFlags selects the cluster a CLI command talks to.
func clusterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "preset",
			Usage: "Connection preset from the configuration file (default: default_preset)",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Elasticsearch host, overrides --preset",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Elasticsearch port",
			Value: core.DefaultPort,
		},
		&cli.StringFlag{
			Name:  "scheme",
			Usage: "Connection scheme (http or https)",
			Value: core.DefaultScheme,
		},
	}
}

// loadCommandConfig loads the configuration named by the global --config flag.
func loadCommandConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// commandConnection resolves the cluster selected by the cluster flags.
func commandConnection(c *cli.Command, cfg *config.Config) (core.Connection, error) {
	port := ""
	if c.IsSet("port") {
		port = strconv.Itoa(c.Int("port"))
	}
	return cfg.ResolveConnection(c.String("preset"), c.String("host"), port, c.String("scheme"))
}

// clientOptions maps the configured limits onto adapter options.
func clientOptions(cfg *config.Config) elastic.Options {
	return elastic.Options{
		Timeout:    cfg.Timeout.Duration,
		MaxRetries: cfg.MaxRetries,
	}
}

// newViewer builds a viewer backed by a client pool.
func newViewer(cfg *config.Config) *viewer.Service {
	pool := viewer.NewPool(clientOptions(cfg))
	return viewer.NewService(pool.Dial, cfg.MaxResults)
}
