package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/basketrec/filter"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/rank"
	"github.com/rushteam/basketrec/recall"
	"github.com/rushteam/basketrec/rerank"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Recommend.CandidateTopN)
	assert.Equal(t, 10, cfg.Recommend.TopK)
	assert.Equal(t, FactSourceCSV, cfg.Facts.Source)
	assert.True(t, cfg.Facts.PriorOnly)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
facts:
  source: database
  driver: sqlite
  dsn: file::memory:
model:
  kind: rpc
  endpoint: http://model:8000/predict
  timeout: 2s
recommend:
  top_k: 5
  blacklist: [7, 9]
`), 0o644))
	t.Setenv("BASKETREC_RECOMMEND_CANDIDATE_TOP_N", "200")
	t.Setenv("BASKETREC_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, FactSourceDatabase, cfg.Facts.Source)
	assert.Equal(t, "sqlite", cfg.Facts.Driver)
	assert.Equal(t, "rpc", cfg.Model.Kind)
	assert.Equal(t, 2*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 5, cfg.Recommend.TopK)
	assert.Equal(t, 200, cfg.Recommend.CandidateTopN)
	assert.Equal(t, []int64{7, 9}, cfg.Recommend.Blacklist)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"database without dsn", func(c *Config) { c.Facts.Source = FactSourceDatabase }},
		{"unknown source", func(c *Config) { c.Facts.Source = "s3" }},
		{"unknown model", func(c *Config) { c.Model.Kind = "xgboost" }},
		{"zero top n", func(c *Config) { c.Recommend.CandidateTopN = 0 }},
		{"zero top k", func(c *Config) { c.Recommend.TopK = 0 }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "facts.csv_dir", envKey("BASKETREC_FACTS_CSV_DIR"))
	assert.Equal(t, "recommend.candidate_top_n", envKey("BASKETREC_RECOMMEND_CANDIDATE_TOP_N"))
}

func TestDefaultPipeline(t *testing.T) {
	deps := Deps{Recommend: Default().Recommend}
	p, err := DefaultPipeline(deps)
	require.NoError(t, err)
	require.Len(t, p.Nodes, 4)
	assert.Equal(t, 1000, p.Nodes[0].(*recall.ReorderRate).TopN)
	assert.IsType(t, &rank.ModelNode{}, p.Nodes[2])
	assert.Equal(t, 10, p.Nodes[3].(*rerank.TopNNode).N)

	deps.Recommend.FilterExpr = "product.price > 50.0"
	p, err = DefaultPipeline(deps)
	require.NoError(t, err)
	require.Len(t, p.Nodes, 5)
	assert.IsType(t, &filter.FilterNode{}, p.Nodes[1])

	deps.Recommend.FilterExpr = "product.price >"
	_, err = DefaultPipeline(deps)
	assert.Error(t, err)
}

func TestBuildPipeline_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  name: basket
  nodes:
    - type: recall.reorder_rate
      config:
        top_n: 50
    - type: filter
      config:
        filters:
          - type: blacklist
            product_ids: [1, 2]
          - type: expr
            expr: product.department_id == 3
    - type: feature.assemble
    - type: rank.model
    - type: rerank.topn
      config:
        n: 3
`), 0o644))

	deps := Deps{Recommend: Default().Recommend}
	deps.Recommend.PipelineFile = path
	p, err := BuildPipeline(deps)
	require.NoError(t, err)
	require.Len(t, p.Nodes, 5)
	assert.Equal(t, 50, p.Nodes[0].(*recall.ReorderRate).TopN)
	assert.Len(t, p.Nodes[1].(*filter.FilterNode).Filters, 2)
	assert.Equal(t, 3, p.Nodes[4].(*rerank.TopNNode).N)
}

func TestDefaultFactory_UnknownType(t *testing.T) {
	_, err := DefaultFactory(Deps{}).Build("recall.ann", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recall.reorder_rate")

	cfg, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: filter\n      config: {}\n"))
	require.NoError(t, err)
	_, err = cfg.BuildPipeline(DefaultFactory(Deps{}))
	assert.Error(t, err)
}
