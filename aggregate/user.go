package aggregate

import (
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pkg/optional"
)

// UserStat 是按用户聚合的统计。
type UserStat struct {
	TotalOrders   int
	TotalItems    int
	DistinctItems int

	// AvgDaysBetween 是 days_since_prior_order 已定义值的均值；只有首单时未定义
	AvgDaysBetween optional.Float

	// AvgBasket = TotalItems / TotalOrders
	AvgBasket optional.Float
}

type orderAgg struct {
	orders int
	days   []optional.Float
}

type itemAgg struct {
	items    int
	products map[int64]struct{}
}

// BuildUsers 做两次独立分组后按 user_id 合并：
//   - 订单表按用户分组：订单数、平均下单间隔
//   - 补齐后的关联表按用户分组：购买件数、去重商品数
//
// 有订单但没有关联的用户也会出现在结果中（TotalItems = 0）。
func BuildUsers(orders []core.Order, rows []EnrichedAssociation) map[int64]UserStat {
	byOrders := make(map[int64]*orderAgg)
	for _, o := range orders {
		a := byOrders[o.UserID]
		if a == nil {
			a = &orderAgg{}
			byOrders[o.UserID] = a
		}
		a.orders++
		a.days = append(a.days, o.DaysSincePrior)
	}

	byItems := make(map[int64]*itemAgg)
	for _, r := range rows {
		a := byItems[r.UserID]
		if a == nil {
			a = &itemAgg{products: make(map[int64]struct{})}
			byItems[r.UserID] = a
		}
		a.items++
		a.products[r.ProductID] = struct{}{}
	}

	out := make(map[int64]UserStat, len(byOrders))
	for uid, oa := range byOrders {
		st := UserStat{
			TotalOrders:    oa.orders,
			AvgDaysBetween: optional.Mean(oa.days),
		}
		if ia := byItems[uid]; ia != nil {
			st.TotalItems = ia.items
			st.DistinctItems = len(ia.products)
		}
		st.AvgBasket = optional.OfInt(st.TotalItems).Div(optional.OfInt(st.TotalOrders))
		out[uid] = st
	}
	// 关联记录都来自可解析的订单，理论上不会有只出现在关联表里的用户；保底处理
	for uid, ia := range byItems {
		if _, ok := out[uid]; ok {
			continue
		}
		out[uid] = UserStat{
			TotalItems:    ia.items,
			DistinctItems: len(ia.products),
		}
	}
	return out
}
