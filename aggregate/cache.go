package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
	"github.com/rushteam/basketrec/metrics"
)

// Cache 按快照版本缓存派生表。
// 派生表只依赖事实快照而与请求用户无关，同一版本只计算一次；
// 并发的未命中经 singleflight 合并，快照版本变化即失效。
type Cache struct {
	loader fact.Loader
	opts   Options
	logger zerolog.Logger

	mu        sync.RWMutex
	current   *Tables
	checkedAt time.Time // 最近一次确认快照版本的时间
	loadSeq   uint64    // 每次调用 Loader.Load 前递增
	installed uint64    // current 对应的 loadSeq
	group     singleflight.Group
}

//nolint:gocritic // zerolog.Logger 按值传递
func NewCache(loader fact.Loader, opts Options, logger zerolog.Logger) *Cache {
	return &Cache{
		loader: loader,
		opts:   opts,
		logger: logger.With().Str("component", "aggregate").Logger(),
	}
}

// Tables 加载最新快照并返回对应版本的派生表。
// Options.RefreshInterval > 0 时，距上次确认不足该间隔直接复用当前派生表，不访问 Loader。
func (c *Cache) Tables(ctx context.Context) (*Tables, error) {
	c.mu.RLock()
	cur, checkedAt := c.current, c.checkedAt
	c.mu.RUnlock()
	if cur != nil && c.opts.RefreshInterval > 0 && time.Since(checkedAt) < c.opts.RefreshInterval {
		metrics.TablesCacheHits.Inc()
		return cur, nil
	}

	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	snap, err := c.loader.Load(ctx)
	if err != nil {
		return nil, core.ErrFactsUnavailable.WithCause(fmt.Errorf("load facts from %s: %w", c.loader.Name(), err))
	}

	c.mu.Lock()
	c.checkedAt = time.Now()
	cur = c.current
	c.mu.Unlock()
	if cur != nil && cur.Version == snap.Version {
		metrics.TablesCacheHits.Inc()
		return cur, nil
	}
	metrics.TablesCacheMisses.Inc()

	v, _, _ := c.group.Do(snap.Version, func() (any, error) {
		t := Build(snap, c.opts)
		c.install(t, seq)
		c.observe(t)
		return t, nil
	})
	return v.(*Tables), nil
}

// install 仅在没有更晚加载的版本已装入时替换 current，
// 慢构建的旧版本不会覆盖新版本；调用方仍拿到自己构建的派生表。
func (c *Cache) install(t *Tables, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && seq <= c.installed {
		return false
	}
	c.current = t
	c.installed = seq
	return true
}

// Current 返回最近一次构建的派生表（可能为 nil）。
func (c *Cache) Current() *Tables {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Invalidate 丢弃缓存，下次 Tables 调用会重新构建。
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.checkedAt = time.Time{}
	c.installed = 0
	c.mu.Unlock()
}

func (c *Cache) observe(t *Tables) {
	metrics.AggregationDuration.Observe(t.BuildDuration.Seconds())
	metrics.SkippedFacts.WithLabelValues("order").Add(float64(t.Report.SkippedOrders))
	metrics.SkippedFacts.WithLabelValues("order_product").Add(float64(t.Report.SkippedOrderProducts))
	metrics.SkippedFacts.WithLabelValues("product").Add(float64(t.Report.SkippedProducts))
	metrics.SkippedFacts.WithLabelValues("orphan_association").Add(float64(t.SkippedOrphan))

	ev := c.logger.Info()
	if t.Report.Total() > 0 || t.SkippedOrphan > 0 {
		ev = c.logger.Warn()
	}
	ev.Str("version", t.Version).
		Int("products", len(t.Products)).
		Int("users", len(t.Users)).
		Int("user_products", len(t.UserProducts)).
		Int("skipped_facts", t.Report.Total()).
		Int("skipped_orphans", t.SkippedOrphan).
		Dur("took", t.BuildDuration).
		Msg("built aggregation tables")
	for _, err := range t.Report.Errors {
		c.logger.Debug().Err(err).Msg("skipped malformed fact")
	}
}
