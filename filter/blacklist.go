package filter

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/rushteam/basketrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的商品（下架、缺货等）。
type BlacklistFilter struct {
	// ProductIDs 是内存中的黑名单商品 ID
	ProductIDs []int64

	// Store 用于从存储中读取黑名单（可选），值为商品 ID 的 JSON 数组
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(productIDs []int64, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		ProductIDs: productIDs,
		Store:      store,
		Key:        key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Prepare 合并内存黑名单与 Store 中的黑名单，每次请求只读一次 Store。
// Store 中没有该 key 时只用内存黑名单。
func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	set := make(productSet, len(f.ProductIDs))
	for _, id := range f.ProductIDs {
		set[id] = struct{}{}
	}
	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		switch {
		case core.IsStoreNotFound(err):
		case err != nil:
			return nil, err
		default:
			var ids []int64
			if err := json.Unmarshal(data, &ids); err != nil {
				return nil, err
			}
			for _, id := range ids {
				set[id] = struct{}{}
			}
		}
	}
	return set, nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	set, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return set.ShouldFilter(ctx, rctx, item)
}

type productSet map[int64]struct{}

func (productSet) Name() string { return "filter.blacklist" }

func (s productSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s[item.ID]
	return ok, nil
}
