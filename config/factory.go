package config

import (
	"fmt"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/feature"
	"github.com/rushteam/basketrec/filter"
	"github.com/rushteam/basketrec/model"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/pkg/conv"
	"github.com/rushteam/basketrec/rank"
	"github.com/rushteam/basketrec/recall"
	"github.com/rushteam/basketrec/rerank"
)

// Deps 是构建 Node 时需要的运行期依赖，无法从 YAML 中表达。
type Deps struct {
	Model     model.RankModel // 可以为 nil：rank.model 在请求时返回模型不可用
	Store     core.Store      // 可以为 nil：黑名单只用配置中的列表
	Recommend RecommendConfig
}

// DefaultFactory 返回一个包含所有内置 Node 的工厂。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.reorder_rate", func(cfg map[string]interface{}) (pipeline.Node, error) {
		topN := conv.ConfigGetInt64(cfg, "top_n", int64(deps.Recommend.CandidateTopN))
		return &recall.ReorderRate{TopN: int(topN)}, nil
	})
	factory.Register("filter", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFilterNode(cfg, deps)
	})
	factory.Register("filter.expr", func(cfg map[string]interface{}) (pipeline.Node, error) {
		f, err := filter.NewExprFilter(conv.ConfigGet(cfg, "expr", ""))
		if err != nil {
			return nil, err
		}
		return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
	})
	factory.Register("feature.assemble", func(map[string]interface{}) (pipeline.Node, error) {
		return &feature.AssembleNode{}, nil
	})
	factory.Register("rank.model", func(map[string]interface{}) (pipeline.Node, error) {
		return &rank.ModelNode{Model: deps.Model}, nil
	})
	factory.Register("rerank.topn", func(cfg map[string]interface{}) (pipeline.Node, error) {
		n := conv.ConfigGetInt64(cfg, "n", int64(deps.Recommend.TopK))
		return &rerank.TopNNode{N: int(n)}, nil
	})

	return factory
}

func buildFilterNode(cfg map[string]interface{}, deps Deps) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		case "blacklist":
			ids := int64s(filterMap["product_ids"])
			key := conv.ConfigGet(filterMap, "key", deps.Recommend.BlacklistKey)
			filters = append(filters, filter.NewBlacklistFilter(ids, deps.Store, key))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func int64s(v any) []int64 {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	return conv.ConvertSlice(list, func(x any) (int64, bool) {
		n, ok := conv.ToInt(x)
		return int64(n), ok
	})
}

// DefaultPipeline 按配置构建默认链路：
// recall.reorder_rate → filter（有配置时）→ feature.assemble → rank.model → rerank.topn
func DefaultPipeline(deps Deps) (*pipeline.Pipeline, error) {
	nodes := []pipeline.Node{&recall.ReorderRate{TopN: deps.Recommend.CandidateTopN}}

	var filters []filter.Filter
	if deps.Recommend.FilterExpr != "" {
		f, err := filter.NewExprFilter(deps.Recommend.FilterExpr)
		if err != nil {
			return nil, fmt.Errorf("recommend.filter_expr: %w", err)
		}
		filters = append(filters, f)
	}
	if len(deps.Recommend.Blacklist) > 0 || deps.Store != nil {
		filters = append(filters, filter.NewBlacklistFilter(deps.Recommend.Blacklist, deps.Store, deps.Recommend.BlacklistKey))
	}
	if len(filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: filters})
	}

	nodes = append(nodes,
		&feature.AssembleNode{},
		&rank.ModelNode{Model: deps.Model},
		&rerank.TopNNode{N: deps.Recommend.TopK},
	)
	return &pipeline.Pipeline{Nodes: nodes}, nil
}

// BuildPipeline 有 pipeline_file 时从 YAML 构建，否则使用 DefaultPipeline。
func BuildPipeline(deps Deps) (*pipeline.Pipeline, error) {
	if deps.Recommend.PipelineFile == "" {
		return DefaultPipeline(deps)
	}
	pc, err := pipeline.LoadFromYAML(deps.Recommend.PipelineFile)
	if err != nil {
		return nil, err
	}
	return pc.BuildPipeline(DefaultFactory(deps))
}
