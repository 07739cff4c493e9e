// Package metrics 定义推荐服务的 Prometheus 指标。
//
// 覆盖：
//   - 推荐请求量与耗时（按结果分类）
//   - 派生表构建耗时、缓存命中
//   - 被剔除的畸形事实
//   - 模型推理错误与远程模型熔断状态
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 推荐请求结果
const (
	OutcomeOK               = "ok"
	OutcomeEmpty            = "empty"
	OutcomeCached           = "cached"
	OutcomeModelUnavailable = "model_unavailable"
	OutcomeError            = "error"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketrec_recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basketrec_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basketrec_aggregation_duration_seconds",
			Help:    "Duration of a full aggregation table build in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	TablesCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basketrec_tables_cache_hits_total",
			Help: "Aggregation table lookups served from cache",
		},
	)

	TablesCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basketrec_tables_cache_misses_total",
			Help: "Aggregation table lookups that required a rebuild",
		},
	)

	SkippedFacts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketrec_skipped_facts_total",
			Help: "Malformed or orphaned fact records skipped during aggregation",
		},
		[]string{"kind"}, // order, order_product, product, orphan_association
	)

	ModelErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketrec_model_errors_total",
			Help: "Scoring model inference failures",
		},
		[]string{"model"},
	)

	// ModelBreakerState 远程模型熔断器状态：0 closed, 1 half-open, 2 open
	ModelBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basketrec_model_breaker_state",
			Help: "Circuit breaker state of remote scoring models",
		},
		[]string{"model"},
	)
)
