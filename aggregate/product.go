package aggregate

import (
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pkg/optional"
)

// ProductStat 是按商品聚合的统计。
// ReorderRate = Reorders / Orders，Orders 为 0 时未定义（不是 0）。
type ProductStat struct {
	Orders      int
	Reorders    int
	ReorderRate optional.Float
}

// BuildProducts 按商品分组统计关联次数与复购次数。
// catalogue 中从未被购买的商品也会得到一行：Orders = 0，ReorderRate 未定义。
func BuildProducts(rows []EnrichedAssociation, catalogue []core.Product) map[int64]ProductStat {
	out := make(map[int64]ProductStat, len(catalogue))
	for _, p := range catalogue {
		out[p.ID] = ProductStat{}
	}
	for _, r := range rows {
		st := out[r.ProductID]
		st.Orders++
		if r.Reordered {
			st.Reorders++
		}
		out[r.ProductID] = st
	}
	for id, st := range out {
		st.ReorderRate = optional.OfInt(st.Reorders).Div(optional.OfInt(st.Orders))
		out[id] = st
	}
	return out
}
