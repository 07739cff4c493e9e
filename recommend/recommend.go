// Package recommend 把派生表缓存、Pipeline 与结果缓存组装成一次完整的推荐请求。
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/metrics"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/rerank"
)

// UnknownName 是商品目录中没有名称时返回的展示名。
const UnknownName = "Unknown"

// Recommendation 是一条推荐结果。
type Recommendation struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
}

// Recommender 为单个用户生成推荐列表，可被并发调用。
type Recommender struct {
	tables   *aggregate.Cache
	pipeline *pipeline.Pipeline
	modelErr error

	results   core.Store
	resultTTL time.Duration

	logger zerolog.Logger
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithModelError 记录启动时模型加载失败。此后 Recommend 对有订单的用户返回
// core.ErrModelUnavailable，服务的其余部分照常运行。
func WithModelError(err error) Option {
	return func(r *Recommender) { r.modelErr = err }
}

// WithResultCache 用 s 缓存推荐结果，key 带快照版本，事实数据变化后自然失效。
func WithResultCache(s core.Store, ttl time.Duration) Option {
	return func(r *Recommender) {
		r.results = s
		r.resultTTL = ttl
	}
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

func New(tables *aggregate.Cache, p *pipeline.Pipeline, opts ...Option) *Recommender {
	r := &Recommender{
		tables:   tables,
		pipeline: p,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("component", "recommend").Logger()
	if r.modelErr != nil {
		r.logger.Error().Err(r.modelErr).Msg("scoring model unavailable, recommendations disabled")
	}
	return r
}

// Ready 报告推荐能力是否可用。
func (r *Recommender) Ready() error {
	if r.modelErr != nil {
		if errors.Is(r.modelErr, core.ErrModelUnavailable) {
			return r.modelErr
		}
		return core.ErrModelUnavailable.WithCause(r.modelErr)
	}
	return nil
}

// Recommend 返回用户的 Top-K 推荐（K 取 Pipeline 的默认值）。
func (r *Recommender) Recommend(ctx context.Context, userID int64) ([]Recommendation, error) {
	return r.RecommendK(ctx, userID, 0)
}

// RecommendK 与 Recommend 相同，k > 0 时覆盖返回条数。
//
// 没有任何订单的用户返回空列表而不是错误；模型不可用或推理失败返回
// core.ErrModelUnavailable；事实数据加载失败返回 core.ErrFactsUnavailable。
func (r *Recommender) RecommendK(ctx context.Context, userID int64, k int) (out []Recommendation, err error) {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		metrics.RecommendRequests.WithLabelValues(outcome).Inc()
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	tables, err := r.tables.Tables(ctx)
	if err != nil {
		outcome = metrics.OutcomeError
		if !errors.Is(err, core.ErrFactsUnavailable) {
			err = core.ErrFactsUnavailable.WithCause(err)
		}
		return nil, err
	}

	if !tables.HasUser(userID) {
		outcome = metrics.OutcomeEmpty
		return []Recommendation{}, nil
	}
	if err := r.Ready(); err != nil {
		outcome = metrics.OutcomeModelUnavailable
		return nil, err
	}

	key := cacheKey(tables.Version, userID, k)
	if cached, ok := r.cached(ctx, key); ok {
		outcome = metrics.OutcomeCached
		return cached, nil
	}

	logger := r.logger.With().Int64("user_id", userID).Str("version", tables.Version).Logger()
	ctx = aggregate.NewContext(logger.WithContext(ctx), tables)
	rctx := core.NewRecommendContext(userID)
	if k > 0 {
		rctx.Params[rerank.ParamTopK] = k
	}

	items, err := r.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		if core.IsModelUnavailable(err) {
			outcome = metrics.OutcomeModelUnavailable
			logger.Error().Err(err).Msg("scoring failed")
			return nil, err
		}
		outcome = metrics.OutcomeError
		return nil, fmt.Errorf("recommend user %d: %w", userID, err)
	}

	out = make([]Recommendation, 0, len(items))
	for _, it := range items {
		name := tables.ProductInfo[it.ID].Name
		if name == "" {
			name = UnknownName
		}
		out = append(out, Recommendation{ProductID: it.ID, Name: name})
	}
	if len(out) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	r.store(ctx, key, out)
	return out, nil
}

func cacheKey(version string, userID int64, k int) string {
	return "rec:" + version + ":" + strconv.FormatInt(userID, 10) + ":" + strconv.Itoa(k)
}

func (r *Recommender) cached(ctx context.Context, key string) ([]Recommendation, bool) {
	if r.results == nil {
		return nil, false
	}
	data, err := r.results.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			r.logger.Warn().Err(err).Str("store", r.results.Name()).Msg("result cache read failed")
		}
		return nil, false
	}
	var out []Recommendation
	if err := json.Unmarshal(data, &out); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("result cache entry corrupt")
		return nil, false
	}
	return out, true
}

func (r *Recommender) store(ctx context.Context, key string, recs []Recommendation) {
	if r.results == nil {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return
	}
	if err := r.results.Set(ctx, key, data, int(r.resultTTL.Seconds())); err != nil {
		r.logger.Warn().Err(err).Str("store", r.results.Name()).Msg("result cache write failed")
	}
}
