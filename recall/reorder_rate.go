package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/pkg/utils"
)

// DefaultTopN 是候选集默认大小。
const DefaultTopN = 1000

// ReorderRate 是按全局复购率召回的候选源。
//
// 这是一个人群级策略：不看目标用户自己的历史，个性化完全交给特征与模型。
// 它的作用是限制特征拼装的规模，TopN 可调。
// 从未被任何人购买过（复购率未定义）的商品不进入候选集。
//
// ReorderRate 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
// 派生表通过 aggregate.NewContext 放入 ctx。
type ReorderRate struct {
	TopN int // <= 0 时使用 DefaultTopN
}

func (r *ReorderRate) Name() string        { return "recall.reorder_rate" }
func (r *ReorderRate) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ReorderRate) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *ReorderRate) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	tables, err := aggregate.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	n := r.TopN
	if n <= 0 {
		n = DefaultTopN
	}

	ids := SelectCandidates(tables, n)
	out := make([]*core.Item, 0, len(ids))
	for rank, id := range ids {
		it := core.NewItem(rctx.UserID, id)
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: r.Name(), Source: "recall"})
		it.PutLabel(utils.LabelRecallRank, utils.Label{Value: strconv.Itoa(rank), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// SelectCandidates 返回复购率已定义的商品中复购率最高的至多 n 个。
// 复购率相同的商品保持目录原始顺序（稳定排序），保证结果可复现。
func SelectCandidates(tables *aggregate.Tables, n int) []int64 {
	if n <= 0 {
		return nil
	}
	type candidate struct {
		id   int64
		rate float64
	}
	cands := make([]candidate, 0, len(tables.Catalogue))
	for _, id := range tables.Catalogue {
		st, ok := tables.Products[id]
		if !ok {
			continue
		}
		if rate, ok := st.ReorderRate.Get(); ok {
			cands = append(cands, candidate{id: id, rate: rate})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].rate > cands[j].rate
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]int64, len(cands))
	for i, c := range cands {
		out[i] = c.id
	}
	return out
}
