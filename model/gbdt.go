package model

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dmitryikh/leaves"

	"github.com/rushteam/basketrec/core"
)

// GBDTModel 包装 leaves 加载的 LightGBM 文本模型。
//
// 模型只在加载时解析一次，之后只读，可并发调用 PredictBatch。
// 缺失值按 LightGBM 的语义处理：missing_type 为 NaN 的节点，NaN 走默认子树；
// 其余节点 NaN 按 0 处理。binary 目标在树求和后做 sigmoid。
type GBDTModel struct {
	name         string
	ensemble     *leaves.Ensemble
	numFeatures  int
	featureNames []string
	objective    string
	sigmoid      float64
}

// predictChunk 是一次 PredictDense 的最大行数，块之间检查 ctx。
const predictChunk = 1024

// LoadGBDTModel 从文件加载 LightGBM 文本模型。
func LoadGBDTModel(path string) (*GBDTModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.ErrModelUnavailable.WithCause(err)
	}
	defer f.Close()

	m, err := ParseGBDTModel(f)
	if err != nil {
		return nil, core.ErrModelUnavailable.WithCause(fmt.Errorf("%s: %w", path, err))
	}
	return m, nil
}

// ParseGBDTModel 解析 LightGBM 文本模型（Booster.save_model 的输出）。
func ParseGBDTModel(r io.Reader) (*GBDTModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// 目标变换由 PredictBatch 按 objective 自行处理，leaves 只输出原始分
	ens, err := leaves.LGEnsembleFromReader(bufio.NewReader(bytes.NewReader(data)), false)
	if err != nil {
		return nil, fmt.Errorf("parse lightgbm model: %w", err)
	}
	if ens.NOutputGroups() != 1 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: multiclass gbdt not supported, output groups=%d", ens.NOutputGroups()))
	}
	if ens.NEstimators() == 0 {
		return nil, fmt.Errorf("no trees")
	}

	m := &GBDTModel{
		name:        "gbdt",
		ensemble:    ens,
		numFeatures: ens.NFeatures(),
		sigmoid:     1,
	}
	if err := m.applyHeader(scanHeader(data)); err != nil {
		return nil, err
	}
	return m, nil
}

// scanHeader 读取第一棵树之前的 key=value 行。
// leaves 不暴露特征名和目标函数，这两项从头部取。
func scanHeader(data []byte) map[string]string {
	h := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<26)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "Tree=") || line == "end of trees" {
			break
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			h[key] = value
		}
	}
	return h
}

func (m *GBDTModel) applyHeader(h map[string]string) error {
	if names := strings.Fields(h["feature_names"]); len(names) > 0 {
		if len(names) != m.numFeatures {
			return fmt.Errorf("feature_names has %d entries, model has %d features", len(names), m.numFeatures)
		}
		m.featureNames = names
	}

	fields := strings.Fields(h["objective"])
	if len(fields) > 0 {
		m.objective = fields[0]
	}
	for _, f := range fields[1:] {
		if v, ok := strings.CutPrefix(f, "sigmoid:"); ok {
			s, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("objective sigmoid: %w", err)
			}
			m.sigmoid = s
		}
	}
	return nil
}

func (m *GBDTModel) Name() string { return m.name }

// NumFeatures 是模型期望的输入维度。
func (m *GBDTModel) NumFeatures() int { return m.numFeatures }

// FeatureNames 返回训练时的特征名；模型文件没有记录时为 nil。
func (m *GBDTModel) FeatureNames() []string { return m.featureNames }

// NumTrees 返回树的数量。
func (m *GBDTModel) NumTrees() int { return m.ensemble.NEstimators() }

// PredictBatch 对每一行特征求和所有树的输出。
func (m *GBDTModel) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	for i, x := range rows {
		if len(x) != m.numFeatures {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("model: row %d has %d features, want %d", i, len(x), m.numFeatures))
		}
	}

	out := make([]float64, len(rows))
	flat := make([]float64, 0, min(len(rows), predictChunk)*m.numFeatures)
	for lo := 0; lo < len(rows); lo += predictChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+predictChunk, len(rows))
		flat = flat[:0]
		for _, x := range rows[lo:hi] {
			flat = append(flat, x...)
		}
		if err := m.ensemble.PredictDense(flat, hi-lo, m.numFeatures, out[lo:hi], 0, 1); err != nil {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				"model: gbdt predict failed").WithCause(err)
		}
	}
	if m.binary() {
		for i, raw := range out {
			out[i] = 1 / (1 + math.Exp(-m.sigmoid*raw))
		}
	}
	return out, nil
}

func (m *GBDTModel) binary() bool {
	return m.objective == "binary" || m.objective == "cross_entropy" || m.objective == "xentropy"
}
