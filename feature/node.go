package feature

import (
	"context"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pipeline"
)

// AssembleNode 为每个候选填充特征向量，派生表从 ctx 读取。
type AssembleNode struct{}

func (n *AssembleNode) Name() string        { return "feature.assemble" }
func (n *AssembleNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *AssembleNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	tables, err := aggregate.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		userID := it.UserID
		if userID == 0 && rctx != nil {
			userID = rctx.UserID
		}
		it.Features = Assemble(tables, userID, it.ID).Slice()
	}
	return items, nil
}

// Dense 把 items 的特征转换为模型批量输入。缺少特征的 item 按全未定义处理。
func Dense(items []*core.Item) [][]float64 {
	out := make([][]float64, len(items))
	for i, it := range items {
		v, _ := FromSlice(it.Features)
		out[i] = v.Dense()
	}
	return out
}
