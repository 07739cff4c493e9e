package core

import (
	"github.com/rushteam/basketrec/pkg/optional"
	"github.com/rushteam/basketrec/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：一个 (用户, 商品) 候选对。
// Features 按 feature.Names 的固定顺序存放，未定义的特征保持 Undefined；
// Score 用于排序决策；Labels 用于解释与观测。
type Item struct {
	ID       int64 // 商品 ID
	UserID   int64
	Score    float64
	Features []optional.Float
	Labels   map[string]utils.Label
}

func NewItem(userID, productID int64) *Item {
	return &Item{
		ID:     productID,
		UserID: userID,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ProductIDs 按顺序返回 items 的商品 ID，跳过 nil。
func ProductIDs(items []*Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it.ID)
		}
	}
	return out
}
