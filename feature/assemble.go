package feature

import (
	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/pkg/optional"
)

// Assemble 为一个 (用户, 商品) 对计算特征向量。
//
// 查表未命中的字段保持未定义，不做默认填充；唯一例外是 UP_orders，
// 用户从未买过该商品时为 0（“买过 0 次”本身是有意义的取值）。
// 任一操作数未定义时，派生字段也未定义。
func Assemble(t *aggregate.Tables, userID, productID int64) Vector {
	var v Vector

	if u, ok := t.Users[userID]; ok {
		v[IdxUserTotalOrders] = optional.OfInt(u.TotalOrders)
		v[IdxUserTotalItems] = optional.OfInt(u.TotalItems)
		v[IdxUserTotalDistinctItems] = optional.OfInt(u.DistinctItems)
		v[IdxUserAverageDaysBetween] = u.AvgDaysBetween
		v[IdxUserAverageBasket] = u.AvgBasket
	}

	if p, ok := t.ProductInfo[productID]; ok {
		v[IdxAisleID] = optional.OfInt(p.AisleID)
		v[IdxDepartmentID] = optional.OfInt(p.DepartmentID)
	}

	if p, ok := t.Products[productID]; ok {
		v[IdxProductOrders] = optional.OfInt(p.Orders)
		v[IdxProductReorders] = optional.OfInt(p.Reorders)
		v[IdxProductReorderRate] = p.ReorderRate
	}

	userOrders := v[IdxUserTotalOrders]
	up, bought := t.UserProduct(userID, productID)
	upOrders := optional.OfInt(up.Orders)
	v[IdxUPOrders] = upOrders
	v[IdxUPOrdersRatio] = upOrders.Div(userOrders)
	v[IdxUPAveragePosInCart] = optional.OfInt(up.SumCartPos).Div(upOrders)
	if bought {
		v[IdxUPOrdersSinceLast] = userOrders.Sub(optional.OfInt(up.LastOrder.Number))
	}
	// 与 UP_orders_ratio 同一公式，训练时的特征集就是如此
	v[IdxUPReorderRate] = v[IdxUPOrdersRatio]
	return v
}
