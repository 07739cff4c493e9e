package core

import "github.com/rushteam/basketrec/pkg/optional"

// EvalSet 是订单所属的评估集合。
type EvalSet string

const (
	EvalSetPrior EvalSet = "prior"
	EvalSetTrain EvalSet = "train"
	EvalSetTest  EvalSet = "test"
)

// Valid 报告 EvalSet 是否为已知取值。
func (s EvalSet) Valid() bool {
	switch s {
	case EvalSetPrior, EvalSetTrain, EvalSetTest:
		return true
	}
	return false
}

// Order 是一次历史下单。OrderNumber 在同一用户内从 1 开始严格递增，越大越新。
// DaysSincePrior 对用户首单未定义。
type Order struct {
	ID             int64
	UserID         int64
	EvalSet        EvalSet
	OrderNumber    int
	DayOfWeek      int
	HourOfDay      int
	DaysSincePrior optional.Float
}

// OrderProduct 表示某商品出现在某订单中。
// AddToCartOrder 是订单内加购顺序（从 1 开始）；Reordered 表示该用户更早的订单里买过它。
type OrderProduct struct {
	OrderID        int64
	ProductID      int64
	AddToCartOrder int
	Reordered      bool
}

// Product 是商品的静态属性。
type Product struct {
	ID           int64
	Name         string
	Price        float64
	DepartmentID int64
	AisleID      int64
}
