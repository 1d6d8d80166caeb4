package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
	"github.com/rubiojr/esview/pkg/elastic/elastictest"
	"github.com/rubiojr/esview/pkg/export"
	"github.com/rubiojr/esview/pkg/pager"
	"github.com/rubiojr/esview/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCluster(t *testing.T) *elastictest.Cluster {
	return elastictest.New(t,
		&elastictest.Index{
			Name: "metrics-2024.03",
			Docs: []elastictest.Doc{
				{ID: "m1", Source: `{"host":"web-1","cpu":0.5}`},
				{ID: "m2", Source: `{"host":"web-2","cpu":0.75,"note":"ñandú, \"quoted\""}`},
			},
			Stats: core.IndexStats{DocsCount: 2, StoreSizeBytes: 123456, IndexTotal: 2},
		},
		&elastictest.Index{Name: "metrics-2024.01"},
	)
}

func TestListIndices(t *testing.T) {
	cluster := testCluster(t)
	cfg := testConfig(cluster.Connection())

	var out bytes.Buffer
	require.NoError(t, listIndices(context.Background(), &out, newViewer(cfg), cluster.Connection()))

	s := out.String()
	assert.Contains(t, s, cluster.Connection().URL())
	assert.Contains(t, s, "2 indices")
	assert.Less(t, strings.Index(s, "metrics-2024.03"), strings.Index(s, "metrics-2024.01"))
}

func TestListIndicesUnreachable(t *testing.T) {
	cfg := testConfig(closedConnection(t))

	var out bytes.Buffer
	err := listIndices(context.Background(), &out, newViewer(cfg), closedConnection(t))
	require.Error(t, err)
	assert.True(t, elastic.IsConnectivity(err))
}

func TestShowStats(t *testing.T) {
	cluster := testCluster(t)
	cfg := testConfig(cluster.Connection())

	var out bytes.Buffer
	require.NoError(t, showStats(context.Background(), &out, newViewer(cfg), cluster.Connection(), "metrics-2024.03"))

	s := out.String()
	assert.Contains(t, s, "Index: metrics-2024.03")
	assert.Contains(t, s, "Store Size (Bytes):")
	assert.Contains(t, s, "123,456")
}

func TestShowDocs(t *testing.T) {
	cluster := testCluster(t)
	cfg := testConfig(cluster.Connection())

	var out bytes.Buffer
	state := pager.State{Page: 2, PageSize: 1}
	require.NoError(t, showDocs(context.Background(), &out, newViewer(cfg), cluster.Connection(), "metrics-2024.03", state))

	s := out.String()
	assert.Contains(t, s, "Index: metrics-2024.03")
	assert.Contains(t, s, "#2")
	assert.Contains(t, s, "_index: metrics-2024.03")
	assert.Contains(t, s, "Page 2 / 2, rows 2 to 2 of 2")
	assert.NotContains(t, s, "#1")
}

func TestShowDocsEmptyIndex(t *testing.T) {
	cluster := testCluster(t)
	cfg := testConfig(cluster.Connection())

	var out bytes.Buffer
	require.NoError(t, showDocs(context.Background(), &out, newViewer(cfg), cluster.Connection(), "metrics-2024.01", pager.New(20)))
	assert.Contains(t, out.String(), "No documents found.")
}

func TestShowStatsFailureIsReported(t *testing.T) {
	cluster := testCluster(t)
	cluster.Fail(elastictest.OpStats, 500)
	cfg := testConfig(cluster.Connection())
	cfg.MaxRetries = 0

	var out bytes.Buffer
	require.NoError(t, showStats(context.Background(), &out, newViewer(cfg), cluster.Connection(), "metrics-2024.03"))
	assert.Contains(t, out.String(), "warning: index_stats")
	assert.Contains(t, out.String(), "Statistics unavailable.")
}

func TestExportIndex(t *testing.T) {
	cluster := testCluster(t)
	cfg := testConfig(cluster.Connection())
	dir := filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	err := exportIndex(context.Background(), &out, newViewer(cfg), cluster.Connection(), "metrics-2024.03", dir, export.Formats)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2 of 2 documents exported")

	data, err := os.ReadFile(filepath.Join(dir, "metrics-2024.03_data.json"))
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "m2", docs[1]["_id"])
	assert.Equal(t, `ñandú, "quoted"`, docs[1]["note"])

	data, err = os.ReadFile(filepath.Join(dir, "metrics-2024.03_data.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Type,Index,host,cpu,note", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[2], `"ñandú, ""quoted"""`)
}

func TestExportSingleFormat(t *testing.T) {
	cluster := testCluster(t)
	cfg := testConfig(cluster.Connection())
	dir := t.TempDir()

	var out bytes.Buffer
	err := exportIndex(context.Background(), &out, newViewer(cfg), cluster.Connection(), "metrics-2024.01", dir, []export.Format{export.FormatCSV})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "metrics-2024.01_data.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "metrics-2024.01_data.csv"))
	assert.NoError(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "esview", "config.toml")

	require.NoError(t, initConfig(path, false))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Presets)

	assert.Error(t, initConfig(path, false), "existing files are kept")
	assert.NoError(t, initConfig(path, true))
}

func TestStatFormatting(t *testing.T) {
	assert.Equal(t, "Deleted Documents", statLabel("deleted documents"))
	assert.Equal(t, "1,234,567", statValue(1234567))
	assert.Equal(t, "0", statValue(0))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	c := VersionCommand()
	c.Writer = &out

	require.NoError(t, c.Run(context.Background(), []string{"version", "--short"}))
	assert.Equal(t, version.Version+"\n", out.String())
}
