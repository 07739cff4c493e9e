package aggregate

import (
	"context"
	"time"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
)

// Options 控制聚合行为。
type Options struct {
	// Shards 是 (用户, 商品) 归并的分片数，<= 0 表示按 CPU 数自动决定
	Shards int

	// RefreshInterval 是 Cache 重新检查事实数据版本的最小间隔，0 表示每次都检查
	RefreshInterval time.Duration
}

// Tables 是一份快照的全部派生表。构造后只读，可被并发请求共享。
type Tables struct {
	Version string

	Products     map[int64]ProductStat
	Users        map[int64]UserStat
	UserProducts map[PairKey]UserProductStat

	// Catalogue 是商品目录（快照中的原始顺序），ProductInfo 为其索引
	Catalogue   []int64
	ProductInfo map[int64]core.Product

	Report        fact.Report
	SkippedOrphan int
	BuiltAt       time.Time
	BuildDuration time.Duration
}

// Build 从快照计算全部派生表。
func Build(snap *fact.Snapshot, opts Options) *Tables {
	start := time.Now()
	enriched := Enrich(snap)

	t := &Tables{
		Version:       snap.Version,
		Products:      BuildProducts(enriched.Rows, snap.Products),
		Users:         BuildUsers(snap.Orders, enriched.Rows),
		UserProducts:  BuildUserProducts(enriched.Rows, opts.Shards),
		Catalogue:     make([]int64, 0, len(snap.Products)),
		ProductInfo:   make(map[int64]core.Product, len(snap.Products)),
		Report:        snap.Report,
		SkippedOrphan: enriched.SkippedUnknownOrder + enriched.SkippedUnknownProduct,
	}
	for _, p := range snap.Products {
		if _, dup := t.ProductInfo[p.ID]; dup {
			continue
		}
		t.ProductInfo[p.ID] = p
		t.Catalogue = append(t.Catalogue, p.ID)
	}
	t.BuiltAt = time.Now()
	t.BuildDuration = t.BuiltAt.Sub(start)
	return t
}

// HasUser 报告用户是否有任何订单。
func (t *Tables) HasUser(userID int64) bool {
	st, ok := t.Users[userID]
	return ok && st.TotalOrders > 0
}

// UserProduct 查询 (用户, 商品) 统计。
func (t *Tables) UserProduct(userID, productID int64) (UserProductStat, bool) {
	st, ok := t.UserProducts[PairKey{UserID: userID, ProductID: productID}]
	return st, ok
}

type tablesKey struct{}

// NewContext 把本次请求使用的派生表放入 ctx，供 Pipeline 各节点读取同一版本。
func NewContext(ctx context.Context, t *Tables) context.Context {
	return context.WithValue(ctx, tablesKey{}, t)
}

// FromContext 取出 NewContext 放入的派生表。
func FromContext(ctx context.Context) (*Tables, error) {
	t, ok := ctx.Value(tablesKey{}).(*Tables)
	if !ok || t == nil {
		return nil, core.NewDomainError(core.ModuleAggregate, core.ErrorCodeNotFound, "aggregate: tables not found in context")
	}
	return t, nil
}
