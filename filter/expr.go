package filter

import (
	"context"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/feature"
	"github.com/rushteam/basketrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤候选：表达式为 true 的候选被移除。
// 表达式可以读取 product 变量（商品目录属性），例如
//
//	product.department_id == 11 || product.price > 50.0
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Prepare 从 ctx 读取本次请求的派生表，用于填充 product 变量。
func (f *ExprFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	tables, err := aggregate.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return &boundExprFilter{ExprFilter: f, tables: tables}, nil
}

func (f *ExprFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	return f.prg.Eval(item, rctx, dsl.Vars{FeatureNames: feature.Names[:]})
}

type boundExprFilter struct {
	*ExprFilter
	tables *aggregate.Tables
}

func (f *boundExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	vars := dsl.Vars{FeatureNames: feature.Names[:]}
	if p, ok := f.tables.ProductInfo[item.ID]; ok {
		vars.Product = map[string]any{
			"id":            p.ID,
			"name":          p.Name,
			"price":         p.Price,
			"aisle_id":      p.AisleID,
			"department_id": p.DepartmentID,
		}
	}
	return f.prg.Eval(item, rctx, vars)
}
