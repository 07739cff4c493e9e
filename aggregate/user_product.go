package aggregate

import (
	"runtime"
	"sync"
)

// PairKey 唯一标识一个 (用户, 商品) 对。
// 直接用结构体做 map key，任意 ID 取值范围下都不会冲突。
type PairKey struct {
	UserID    int64
	ProductID int64
}

// OrderRef 标识一个订单的时间位置，按 (Number, ID) 字典序比较。
type OrderRef struct {
	Number int
	ID     int64
}

// After 报告 r 是否比 o 更新：序号大者更新，序号相同时订单 ID 大者更新。
func (r OrderRef) After(o OrderRef) bool {
	if r.Number != o.Number {
		return r.Number > o.Number
	}
	return r.ID > o.ID
}

// UserProductStat 是 (用户, 商品) 对的统计。
type UserProductStat struct {
	Orders     int      // 共现次数
	LastOrder  OrderRef // 包含该对的最新订单
	SumCartPos int      // 加购顺序之和
}

// Combine 合并两份统计。满足结合律与交换律，零值是单位元，
// 因此可以对关联表任意分片后归并。
func (s UserProductStat) Combine(o UserProductStat) UserProductStat {
	out := UserProductStat{
		Orders:     s.Orders + o.Orders,
		LastOrder:  s.LastOrder,
		SumCartPos: s.SumCartPos + o.SumCartPos,
	}
	if o.LastOrder.After(s.LastOrder) {
		out.LastOrder = o.LastOrder
	}
	return out
}

func statOf(r EnrichedAssociation) UserProductStat {
	return UserProductStat{
		Orders:     1,
		LastOrder:  OrderRef{Number: r.OrderNumber, ID: r.OrderID},
		SumCartPos: r.AddToCartOrder,
	}
}

func reduce(rows []EnrichedAssociation) map[PairKey]UserProductStat {
	out := make(map[PairKey]UserProductStat)
	for _, r := range rows {
		k := PairKey{UserID: r.UserID, ProductID: r.ProductID}
		out[k] = out[k].Combine(statOf(r))
	}
	return out
}

// minRowsPerShard 以下的分片不值得起 goroutine。
const minRowsPerShard = 1 << 14

// BuildUserProducts 按 (用户, 商品) 归并关联记录。
// shards <= 0 时按 GOMAXPROCS 决定分片数；shards == 1 为单线程扫描。
// 分片结果经 Combine 合并，与单线程结果完全一致。
func BuildUserProducts(rows []EnrichedAssociation, shards int) map[PairKey]UserProductStat {
	if shards <= 0 {
		shards = runtime.GOMAXPROCS(0)
	}
	if maxShards := len(rows) / minRowsPerShard; shards > maxShards {
		shards = maxShards
	}
	if shards <= 1 {
		return reduce(rows)
	}
	return reduceSharded(rows, shards)
}

func reduceSharded(rows []EnrichedAssociation, shards int) map[PairKey]UserProductStat {
	parts := make([]map[PairKey]UserProductStat, shards)
	size := (len(rows) + shards - 1) / shards

	var wg sync.WaitGroup
	for i := range shards {
		lo := i * size
		hi := min(lo+size, len(rows))
		if lo >= hi {
			continue
		}
		wg.Go(func() {
			parts[i] = reduce(rows[lo:hi])
		})
	}
	wg.Wait()

	out := parts[0]
	if out == nil {
		out = make(map[PairKey]UserProductStat)
	}
	for _, p := range parts[1:] {
		for k, v := range p {
			out[k] = out[k].Combine(v)
		}
	}
	return out
}
