package rerank

import (
	"context"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/pkg/conv"
)

// DefaultK 是默认返回的推荐数量。
const DefaultK = 10

// ParamTopK 是请求级覆盖 K 的参数名（RecommendContext.Params）。
const ParamTopK = "top_k"

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个商品。
// 通常在排序（Rank）节点之后使用。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.ModelNode{...},    // 排序
//	        &rerank.TopNNode{N: 10}, // 截取 Top 10
//	    },
//	}
type TopNNode struct {
	// N 要保留的商品数量；<= 0 时使用 DefaultK。
	// 请求参数 top_k 为正数时优先使用。
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	k := n.N
	if k <= 0 {
		k = DefaultK
	}
	if rctx != nil {
		if v, ok := conv.ToInt(rctx.Params[ParamTopK]); ok && v > 0 {
			k = v
		}
	}
	if len(items) <= k {
		return items, nil
	}
	return items[:k], nil
}
