package model

import (
	"context"
	"fmt"
	"math"
	"os"

	json "github.com/goccy/go-json"

	"github.com/rushteam/basketrec/core"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型，作为 GBDT 不可用时的线性兜底。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 未定义（NaN）的特征不参与求和。
type LRModel struct {
	Bias    float64            // 偏置项 (Bias / Intercept)
	Weights map[string]float64 // 特征权重 (Weights / Coefficients)

	names []string
	dense []float64 // 按 names 顺序展开的权重
}

// NewLRModel 按特征顺序 names 展开权重；names 中没有权重的特征权重为 0。
// 权重名与 names 都经 CanonicalFeatureName 归一后匹配。
func NewLRModel(bias float64, weights map[string]float64, names []string) *LRModel {
	m := &LRModel{
		Bias:    bias,
		Weights: weights,
		names:   names,
		dense:   make([]float64, len(names)),
	}
	canon := make(map[string]float64, len(weights))
	for k, w := range weights {
		canon[CanonicalFeatureName(k)] = w
	}
	for i, n := range names {
		m.dense[i] = canon[CanonicalFeatureName(n)]
	}
	return m
}

// LoadLRModel 从 JSON 文件加载权重：{"bias": 0.1, "weights": {"UP_orders": 0.8, ...}}
func LoadLRModel(path string, names []string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ErrModelUnavailable.WithCause(err)
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.ErrModelUnavailable.WithCause(fmt.Errorf("%s: %w", path, err))
	}
	return NewLRModel(raw.Bias, raw.Weights, names), nil
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) FeatureNames() []string { return m.names }

func (m *LRModel) PredictBatch(_ context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, x := range rows {
		if len(x) != len(m.dense) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("model: row %d has %d features, want %d", i, len(x), len(m.dense)))
		}
		z := m.Bias
		for j, v := range x {
			if math.IsNaN(v) {
				continue
			}
			z += m.dense[j] * v
		}
		out[i] = 1 / (1 + math.Exp(-z))
	}
	return out, nil
}
