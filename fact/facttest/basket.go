// Package facttest 提供测试用的手工事实数据。
//
// Basket 固定为 2 个用户、5 个订单、12 条关联、5 个商品（商品 5 从未被购买）：
//
//	user 1: order 101 (#1) [P1@1, P2@2]
//	        order 102 (#2, 7d) [P1@1 r, P3@2, P2@3 r]
//	        order 103 (#3, 14d) [P1@2 r, P4@1]
//	user 2: order 201 (#1) [P2@1, P3@2]
//	        order 202 (#2, 30d) [P2@1 r, P3@2 r, P4@3]
package facttest

import (
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
	"github.com/rushteam/basketrec/pkg/optional"
)

// Orders 返回 Basket 的订单。
func Orders() []core.Order {
	return []core.Order{
		{ID: 101, UserID: 1, EvalSet: core.EvalSetPrior, OrderNumber: 1, DayOfWeek: 1, HourOfDay: 9},
		{ID: 102, UserID: 1, EvalSet: core.EvalSetPrior, OrderNumber: 2, DayOfWeek: 1, HourOfDay: 10, DaysSincePrior: optional.Of(7)},
		{ID: 103, UserID: 1, EvalSet: core.EvalSetPrior, OrderNumber: 3, DayOfWeek: 1, HourOfDay: 11, DaysSincePrior: optional.Of(14)},
		{ID: 201, UserID: 2, EvalSet: core.EvalSetPrior, OrderNumber: 1, DayOfWeek: 5, HourOfDay: 18},
		{ID: 202, UserID: 2, EvalSet: core.EvalSetPrior, OrderNumber: 2, DayOfWeek: 6, HourOfDay: 19, DaysSincePrior: optional.Of(30)},
	}
}

// OrderProducts 返回 Basket 的 12 条关联。
func OrderProducts() []core.OrderProduct {
	return []core.OrderProduct{
		{OrderID: 101, ProductID: 1, AddToCartOrder: 1},
		{OrderID: 101, ProductID: 2, AddToCartOrder: 2},
		{OrderID: 102, ProductID: 1, AddToCartOrder: 1, Reordered: true},
		{OrderID: 102, ProductID: 3, AddToCartOrder: 2},
		{OrderID: 102, ProductID: 2, AddToCartOrder: 3, Reordered: true},
		{OrderID: 103, ProductID: 1, AddToCartOrder: 2, Reordered: true},
		{OrderID: 103, ProductID: 4, AddToCartOrder: 1},
		{OrderID: 201, ProductID: 2, AddToCartOrder: 1},
		{OrderID: 201, ProductID: 3, AddToCartOrder: 2},
		{OrderID: 202, ProductID: 2, AddToCartOrder: 1, Reordered: true},
		{OrderID: 202, ProductID: 3, AddToCartOrder: 2, Reordered: true},
		{OrderID: 202, ProductID: 4, AddToCartOrder: 3},
	}
}

// Products 返回 Basket 的商品目录。
func Products() []core.Product {
	return []core.Product{
		{ID: 1, Name: "Banana", Price: 0.5, DepartmentID: 4, AisleID: 24},
		{ID: 2, Name: "Whole Milk", Price: 2.1, DepartmentID: 16, AisleID: 84},
		{ID: 3, Name: "Sourdough", Price: 4.0, DepartmentID: 3, AisleID: 112},
		{ID: 4, Name: "Eggs", Price: 3.2, DepartmentID: 16, AisleID: 86},
		{ID: 5, Name: "Caviar", Price: 99, DepartmentID: 1, AisleID: 1},
	}
}

// Basket 返回完整快照。
func Basket() *fact.Snapshot {
	return fact.NewSnapshot(Orders(), OrderProducts(), Products())
}

// Loader 返回持有 Basket 的 MemoryLoader。
func Loader() *fact.MemoryLoader {
	return fact.NewMemoryLoader(Orders(), OrderProducts(), Products())
}
