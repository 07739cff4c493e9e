package model

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/basketrec/core"
)

// 模型类型
const (
	KindGBDT = "gbdt"
	KindLR   = "lr"
	KindRPC  = "rpc"
)

// Options 描述如何获得打分模型。
type Options struct {
	Kind     string        // gbdt / lr / rpc
	Path     string        // gbdt、lr 的模型文件
	Endpoint string        // rpc 地址
	Timeout  time.Duration // rpc 超时
}

// Load 按 Options 加载模型，进程启动时调用一次。
// names 是特征向量的字段顺序；模型记录的训练特征名与之不一致时视为不可用，
// 避免按错位的特征打分。所有失败都返回 core.ErrModelUnavailable。
func Load(opts Options, names []string, logger zerolog.Logger) (RankModel, error) {
	var (
		m   RankModel
		err error
	)
	switch opts.Kind {
	case KindGBDT, "":
		m, err = LoadGBDTModel(opts.Path)
	case KindLR:
		m, err = LoadLRModel(opts.Path, names)
	case KindRPC:
		if opts.Endpoint == "" {
			return nil, core.ErrModelUnavailable.WithCause(fmt.Errorf("rpc model requires an endpoint"))
		}
		m = NewRPCModel(KindRPC, opts.Endpoint, opts.Timeout,
			WithRPCFeatureNames(names),
			WithRPCLogger(logger.With().Str("component", "model").Logger()))
	default:
		return nil, core.ErrModelUnavailable.WithCause(fmt.Errorf("unknown model kind %q", opts.Kind))
	}
	if err != nil {
		return nil, err
	}
	if err := CheckFeatures(m, names); err != nil {
		return nil, err
	}
	return m, nil
}

// trainingAliases 把训练脚本使用过的特征名映射到当前名字。
// 原训练集把 user_total_distinct_items 记作 total_distinct_items，两者是同一列。
var trainingAliases = map[string]string{
	"total_distinct_items": "user_total_distinct_items",
}

// CanonicalFeatureName 返回特征名在 trainingAliases 映射后的名字。
func CanonicalFeatureName(name string) string {
	if c, ok := trainingAliases[name]; ok {
		return c
	}
	return name
}

// CheckFeatures 校验模型的训练特征与 names 一致，名字经 CanonicalFeatureName 归一后逐位比较。
// 不报告特征名的模型跳过校验。
func CheckFeatures(m RankModel, names []string) error {
	if g, ok := m.(*GBDTModel); ok && g.NumFeatures() != len(names) {
		return core.ErrModelUnavailable.WithCause(
			fmt.Errorf("model expects %d features, got %d", g.NumFeatures(), len(names)))
	}
	fn, ok := m.(FeatureNamer)
	if !ok {
		return nil
	}
	got := fn.FeatureNames()
	if len(got) == 0 {
		return nil
	}
	if len(got) != len(names) {
		return core.ErrModelUnavailable.WithCause(
			fmt.Errorf("model has %d feature names, got %d", len(got), len(names)))
	}
	for i := range got {
		if CanonicalFeatureName(got[i]) != CanonicalFeatureName(names[i]) {
			return core.ErrModelUnavailable.WithCause(
				fmt.Errorf("feature %d: model has %q, vector has %q", i, got[i], names[i]))
		}
	}
	return nil
}
