package feature

// 特征在向量中的位置。
const (
	IdxUserTotalOrders = iota
	IdxUserTotalItems
	IdxUserTotalDistinctItems
	IdxUserAverageDaysBetween
	IdxUserAverageBasket
	IdxAisleID
	IdxDepartmentID
	IdxProductOrders
	IdxProductReorders
	IdxProductReorderRate
	IdxUPOrders
	IdxUPOrdersRatio
	IdxUPAveragePosInCart
	IdxUPOrdersSinceLast
	IdxUPReorderRate

	// Size 是特征向量长度。
	Size
)

// Names 是特征向量的字段名，顺序固定，模型按此顺序读取输入。
var Names = [Size]string{
	IdxUserTotalOrders:        "user_total_orders",
	IdxUserTotalItems:         "user_total_items",
	IdxUserTotalDistinctItems: "user_total_distinct_items",
	IdxUserAverageDaysBetween: "user_average_days_between_orders",
	IdxUserAverageBasket:      "user_average_basket",
	IdxAisleID:                "aisle_id",
	IdxDepartmentID:           "department_id",
	IdxProductOrders:          "product_orders",
	IdxProductReorders:        "product_reorders",
	IdxProductReorderRate:     "product_reorder_rate",
	IdxUPOrders:               "UP_orders",
	IdxUPOrdersRatio:          "UP_orders_ratio",
	IdxUPAveragePosInCart:     "UP_average_pos_in_cart",
	IdxUPOrdersSinceLast:      "UP_orders_since_last",
	IdxUPReorderRate:          "UP_reorder_rate",
}

var nameIndex = func() map[string]int {
	m := make(map[string]int, Size)
	for i, n := range Names {
		m[n] = i
	}
	return m
}()

// Index 返回字段在向量中的位置。
func Index(name string) (int, bool) {
	i, ok := nameIndex[name]
	return i, ok
}
