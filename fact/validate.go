package fact

import (
	"fmt"
	"math"

	"github.com/rushteam/basketrec/core"
)

// Report 记录被剔除的畸形事实。剔除从不致命，由调用方决定是否记录日志或打点。
type Report struct {
	SkippedOrders        int
	SkippedOrderProducts int
	SkippedProducts      int

	// Errors 保留前 maxReportErrors 条原因，便于排查
	Errors []error
}

const maxReportErrors = 20

// Total 返回剔除总数。
func (r Report) Total() int {
	return r.SkippedOrders + r.SkippedOrderProducts + r.SkippedProducts
}

func (r *Report) add(counter *int, err error) {
	*counter++
	if len(r.Errors) < maxReportErrors {
		r.Errors = append(r.Errors, core.ErrInvalidFact.WithCause(err))
	}
}

// Merge 累加另一份报告。
func (r *Report) Merge(o Report) {
	r.SkippedOrders += o.SkippedOrders
	r.SkippedOrderProducts += o.SkippedOrderProducts
	r.SkippedProducts += o.SkippedProducts
	for _, err := range o.Errors {
		if len(r.Errors) >= maxReportErrors {
			break
		}
		r.Errors = append(r.Errors, err)
	}
}

// ValidateOrder 检查订单的必填字段与取值范围。
func ValidateOrder(o core.Order) error {
	switch {
	case o.ID <= 0:
		return fmt.Errorf("order %d: invalid id", o.ID)
	case o.UserID <= 0:
		return fmt.Errorf("order %d: invalid user_id %d", o.ID, o.UserID)
	case !o.EvalSet.Valid():
		return fmt.Errorf("order %d: unknown eval_set %q", o.ID, o.EvalSet)
	case o.OrderNumber < 1:
		return fmt.Errorf("order %d: order_number %d < 1", o.ID, o.OrderNumber)
	case o.DayOfWeek < 0 || o.DayOfWeek > 6:
		return fmt.Errorf("order %d: order_dow %d out of range", o.ID, o.DayOfWeek)
	case o.HourOfDay < 0 || o.HourOfDay > 23:
		return fmt.Errorf("order %d: order_hour_of_day %d out of range", o.ID, o.HourOfDay)
	}
	if v, ok := o.DaysSincePrior.Get(); ok && (v < 0 || math.IsInf(v, 0)) {
		return fmt.Errorf("order %d: days_since_prior_order %v invalid", o.ID, v)
	}
	return nil
}

// ValidateOrderProduct 检查关联记录的必填字段。引用是否可解析由聚合层判断。
func ValidateOrderProduct(op core.OrderProduct) error {
	switch {
	case op.OrderID <= 0:
		return fmt.Errorf("order_product (%d,%d): invalid order_id", op.OrderID, op.ProductID)
	case op.ProductID <= 0:
		return fmt.Errorf("order_product (%d,%d): invalid product_id", op.OrderID, op.ProductID)
	case op.AddToCartOrder < 1:
		return fmt.Errorf("order_product (%d,%d): add_to_cart_order %d < 1", op.OrderID, op.ProductID, op.AddToCartOrder)
	}
	return nil
}

// ValidateProduct 检查商品的必填字段。
func ValidateProduct(p core.Product) error {
	switch {
	case p.ID <= 0:
		return fmt.Errorf("product %d: invalid id", p.ID)
	case p.DepartmentID <= 0:
		return fmt.Errorf("product %d: invalid department_id %d", p.ID, p.DepartmentID)
	case p.AisleID <= 0:
		return fmt.Errorf("product %d: invalid aisle_id %d", p.ID, p.AisleID)
	case math.IsNaN(p.Price) || p.Price < 0:
		return fmt.Errorf("product %d: invalid price %v", p.ID, p.Price)
	}
	return nil
}

// ValidOrders 返回通过校验的订单，剔除数记入 report。
func ValidOrders(in []core.Order, report *Report) []core.Order {
	out := make([]core.Order, 0, len(in))
	for _, o := range in {
		if err := ValidateOrder(o); err != nil {
			report.add(&report.SkippedOrders, err)
			continue
		}
		out = append(out, o)
	}
	return out
}

// ValidOrderProducts 返回通过校验的关联记录。
func ValidOrderProducts(in []core.OrderProduct, report *Report) []core.OrderProduct {
	out := make([]core.OrderProduct, 0, len(in))
	for _, op := range in {
		if err := ValidateOrderProduct(op); err != nil {
			report.add(&report.SkippedOrderProducts, err)
			continue
		}
		out = append(out, op)
	}
	return out
}

// ValidProducts 返回通过校验的商品。
func ValidProducts(in []core.Product, report *Report) []core.Product {
	out := make([]core.Product, 0, len(in))
	for _, p := range in {
		if err := ValidateProduct(p); err != nil {
			report.add(&report.SkippedProducts, err)
			continue
		}
		out = append(out, p)
	}
	return out
}
