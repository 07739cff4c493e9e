// Package fact 提供推荐核心的只读事实数据：订单、订单-商品关联、商品。
//
// 事实数据以不可变的 Snapshot 形式交给聚合层；Snapshot.Version 是内容指纹，
// 聚合层据此缓存派生表，事实变化时版本随之变化。
package fact

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/rushteam/basketrec/core"
)

// Loader 按需提供一份完整的事实快照。
type Loader interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot 是一份不可变的事实数据。构造后不得修改其中的切片。
type Snapshot struct {
	Version       string
	Orders        []core.Order
	OrderProducts []core.OrderProduct
	Products      []core.Product
	Report        Report
}

// NewSnapshot 校验输入、剔除畸形记录并计算内容指纹。
// 输入切片不会被修改。
func NewSnapshot(orders []core.Order, ops []core.OrderProduct, products []core.Product) *Snapshot {
	var report Report
	s := &Snapshot{
		Orders:        ValidOrders(orders, &report),
		OrderProducts: ValidOrderProducts(ops, &report),
		Products:      ValidProducts(products, &report),
	}
	s.Report = report
	s.Version = fingerprint(s)
	return s
}

// PriorOnly 返回只保留 prior 订单关联的新快照（订单与商品保持不变）。
func (s *Snapshot) PriorOnly() *Snapshot {
	prior := make(map[int64]struct{}, len(s.Orders))
	for _, o := range s.Orders {
		if o.EvalSet == core.EvalSetPrior {
			prior[o.ID] = struct{}{}
		}
	}
	ops := make([]core.OrderProduct, 0, len(s.OrderProducts))
	for _, op := range s.OrderProducts {
		if _, ok := prior[op.OrderID]; ok {
			ops = append(ops, op)
		}
	}
	out := &Snapshot{
		Orders:        s.Orders,
		OrderProducts: ops,
		Products:      s.Products,
		Report:        s.Report,
	}
	out.Version = fingerprint(out)
	return out
}

func fingerprint(s *Snapshot) string {
	h := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}

	putInt(int64(len(s.Orders)))
	for _, o := range s.Orders {
		putInt(o.ID)
		putInt(o.UserID)
		_, _ = h.WriteString(string(o.EvalSet))
		putInt(int64(o.OrderNumber))
		putInt(int64(o.DayOfWeek))
		putInt(int64(o.HourOfDay))
		if v, ok := o.DaysSincePrior.Get(); ok {
			putFloat(v)
		} else {
			putInt(-1)
		}
	}
	putInt(int64(len(s.OrderProducts)))
	for _, op := range s.OrderProducts {
		putInt(op.OrderID)
		putInt(op.ProductID)
		putInt(int64(op.AddToCartOrder))
		if op.Reordered {
			putInt(1)
		} else {
			putInt(0)
		}
	}
	putInt(int64(len(s.Products)))
	for _, p := range s.Products {
		putInt(p.ID)
		_, _ = h.WriteString(p.Name)
		putFloat(p.Price)
		putInt(p.DepartmentID)
		putInt(p.AisleID)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
