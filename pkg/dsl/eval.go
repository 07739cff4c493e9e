package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/basketrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
		cel.Variable("product", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Label DSL 表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可被并发请求重复执行。
//
// 可用变量：
//   - item：id, user_id, score, features（只含已定义的特征）, labels
//   - label：label.<key> 直接取 Label 的 value
//   - rctx：user_id, params
//   - product：id, name, price, aisle_id, department_id（调用方提供时）
//
// 示例：
//   - `product.department_id == 10` → 剔除某个品类
//   - `label.recall_source == "recall.reorder_rate" && item.score > 0.7`
//   - `"UP_orders" in item.features && item.features.UP_orders == 0.0`
//
// 注意：访问不存在的 key 会报错，用 `"key" in label` 判断存在性。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Vars 是 item、rctx 之外的可选输入。
type Vars struct {
	// Product 是商品属性，对应变量 product
	Product map[string]any
	// FeatureNames 用于把 item.Features 展开为 item.features.<name>
	FeatureNames []string
}

// Eval 对一个候选执行表达式。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext, vars Vars) (bool, error) {
	out, _, err := p.prg.Eval(BuildInput(item, rctx, vars))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Eval 编译并执行一次表达式；空表达式恒为 true。
// 需要重复执行时使用 Compile。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx, Vars{})
}

// BuildInput 构建 CEL 表达式的输入数据
func BuildInput(item *core.Item, rctx *core.RecommendContext, vars Vars) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	labelAccessor := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = map[string]any{
			"value":  v.Value,
			"source": v.Source,
		}
		labelAccessor[k] = v.Value
	}

	features := make(map[string]any, len(item.Features))
	for i, f := range item.Features {
		if i >= len(vars.FeatureNames) {
			break
		}
		if v, ok := f.Get(); ok {
			features[vars.FeatureNames[i]] = v
		}
	}

	in := map[string]any{
		"item": map[string]any{
			"id":       item.ID,
			"user_id":  item.UserID,
			"score":    item.Score,
			"features": features,
			"labels":   labels,
		},
		"label": labelAccessor,
	}
	if rctx != nil {
		in["rctx"] = map[string]any{
			"user_id": rctx.UserID,
			"params":  rctx.Params,
		}
	} else {
		in["rctx"] = map[string]any{}
	}
	product := vars.Product
	if product == nil {
		product = map[string]any{}
	}
	in["product"] = product
	return in
}
