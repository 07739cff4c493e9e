package model

import "context"

// RankModel 是排序阶段的最小抽象：输入一批按固定顺序排列的特征向量，输出同样长度的分数。
// 未定义的特征以 NaN 传入，实现需要能处理。
// 具体实现可以是本地模型（GBDT/LR）或远程 RPC。实现必须可重入，可被并发请求共享。
type RankModel interface {
	Name() string
	PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error)
}

// FeatureNamer 由能报告训练时特征顺序的模型实现，用于启动时校验。
type FeatureNamer interface {
	FeatureNames() []string
}
