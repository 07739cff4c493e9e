// Package aggregate 把事实快照聚合成三张派生表：商品统计、用户统计、(用户, 商品) 统计。
//
// 所有函数都是输入快照的纯函数：不依赖外部状态，可重复计算，结果只读。
package aggregate

import (
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
)

// EnrichedAssociation 是补齐了所属用户与订单序号的关联记录。
type EnrichedAssociation struct {
	core.OrderProduct
	UserID      int64
	OrderNumber int
}

// Enriched 是 Enrich 的结果：可解析的关联记录，以及被剔除的孤儿记录数。
type Enriched struct {
	Rows []EnrichedAssociation

	SkippedUnknownOrder   int
	SkippedUnknownProduct int
}

// Enrich 按订单 ID 关联订单表，为每条关联补齐 user_id 与 order_number。
// 订单或商品无法解析的关联视为畸形输入，静默剔除并计数。
func Enrich(snap *fact.Snapshot) Enriched {
	orders := make(map[int64]core.Order, len(snap.Orders))
	for _, o := range snap.Orders {
		if _, dup := orders[o.ID]; !dup {
			orders[o.ID] = o
		}
	}
	products := make(map[int64]struct{}, len(snap.Products))
	for _, p := range snap.Products {
		products[p.ID] = struct{}{}
	}

	out := Enriched{Rows: make([]EnrichedAssociation, 0, len(snap.OrderProducts))}
	for _, op := range snap.OrderProducts {
		o, ok := orders[op.OrderID]
		if !ok {
			out.SkippedUnknownOrder++
			continue
		}
		if _, ok := products[op.ProductID]; !ok {
			out.SkippedUnknownProduct++
			continue
		}
		out.Rows = append(out.Rows, EnrichedAssociation{
			OrderProduct: op,
			UserID:       o.UserID,
			OrderNumber:  o.OrderNumber,
		})
	}
	return out
}
