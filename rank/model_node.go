package rank

import (
	"context"
	"sort"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/feature"
	"github.com/rushteam/basketrec/metrics"
	"github.com/rushteam/basketrec/model"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/pkg/utils"
)

// ModelNode 是使用 RankModel 的排序 Node（不限定模型类型，GBDT 只是默认实现之一）。
// - 一次批量推理为所有候选打分
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序稳定排序，同分保持输入顺序
//
// 模型缺失或推理失败返回 core.ErrModelUnavailable。
type ModelNode struct {
	Model model.RankModel
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if n.Model == nil {
		return nil, core.ErrModelUnavailable
	}

	valid := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			valid = append(valid, it)
		}
	}

	scores, err := n.Model.PredictBatch(ctx, feature.Dense(valid))
	if err != nil {
		metrics.ModelErrors.WithLabelValues(n.Model.Name()).Inc()
		if core.IsModelUnavailable(err) {
			return nil, err
		}
		return nil, core.ErrModelUnavailable.WithCause(err)
	}
	if len(scores) != len(valid) {
		metrics.ModelErrors.WithLabelValues(n.Model.Name()).Inc()
		return nil, core.ErrModelUnavailable
	}

	for i, it := range valid {
		it.Score = scores[i]
		it.PutLabel(utils.LabelRankModel, utils.Label{Value: n.Model.Name(), Source: "rank"})
	}
	SortByScore(valid)
	return valid, nil
}

// SortByScore 按分数降序稳定排序。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
