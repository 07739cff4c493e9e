// Package basketrec 是一个基于订单历史的复购推荐服务（Basket Recommender）。
//
// 设计要点：
// - Facts-first: 订单、订单-商品关联与商品目录是只读事实，派生表按快照版本构建并缓存
// - Pipeline-first: 一次推荐由 Node 串联（Recall → Filter → Feature → Rank → ReRank）
// - 未定义值（缺失、除零）在特征中保持未定义，交给 GBDT 按缺失值处理
package basketrec

import "github.com/rushteam/basketrec/pipeline"

// 轻量 facade：便于直接 import "basketrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall  = pipeline.KindRecall
	KindFilter  = pipeline.KindFilter
	KindFeature = pipeline.KindFeature
	KindRank    = pipeline.KindRank
	KindReRank  = pipeline.KindReRank
)
