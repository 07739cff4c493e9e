package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
	"github.com/rushteam/basketrec/fact/facttest"
	"github.com/rushteam/basketrec/feature"
	"github.com/rushteam/basketrec/model"
	"github.com/rushteam/basketrec/pipeline"
	"github.com/rushteam/basketrec/rank"
	"github.com/rushteam/basketrec/recall"
	"github.com/rushteam/basketrec/rerank"
	"github.com/rushteam/basketrec/store"
)

// upOrdersModel 以 UP_orders 作为分数：用户买得越多排得越前。
type upOrdersModel struct {
	calls atomic.Int32
	err   error
}

func (m *upOrdersModel) Name() string { return "up_orders" }

func (m *upOrdersModel) PredictBatch(_ context.Context, rows [][]float64) ([]float64, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[feature.IdxUPOrders]
	}
	return out, nil
}

func newPipeline(m model.RankModel) *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.ReorderRate{},
		&feature.AssembleNode{},
		&rank.ModelNode{Model: m},
		&rerank.TopNNode{},
	}}
}

func newRecommender(loader fact.Loader, m model.RankModel, opts ...Option) *Recommender {
	cache := aggregate.NewCache(loader, aggregate.Options{}, zerolog.Nop())
	return New(cache, newPipeline(m), opts...)
}

func TestRecommend(t *testing.T) {
	r := newRecommender(facttest.Loader(), &upOrdersModel{})

	got, err := r.Recommend(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []Recommendation{
		{ProductID: 1, Name: "Banana"},
		{ProductID: 2, Name: "Whole Milk"},
		{ProductID: 3, Name: "Sourdough"},
		{ProductID: 4, Name: "Eggs"},
	}, got)
}

func TestRecommend_NeverIncludesUnpurchasedProducts(t *testing.T) {
	r := newRecommender(facttest.Loader(), &upOrdersModel{})

	got, err := r.Recommend(context.Background(), 2)
	require.NoError(t, err)
	for _, rec := range got {
		assert.NotEqual(t, int64(5), rec.ProductID)
	}
	assert.Equal(t, int64(2), got[0].ProductID)
}

func TestRecommendK(t *testing.T) {
	r := newRecommender(facttest.Loader(), &upOrdersModel{})

	got, err := r.RecommendK(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, []int64{got[0].ProductID, got[1].ProductID})
	assert.Len(t, got, 2)
}

func TestRecommend_UnknownUserIsEmpty(t *testing.T) {
	r := newRecommender(facttest.Loader(), &upOrdersModel{}, WithModelError(errors.New("no model file")))

	got, err := r.Recommend(context.Background(), 999)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecommend_ModelLoadFailure(t *testing.T) {
	r := newRecommender(facttest.Loader(), nil, WithModelError(errors.New("no model file")))

	_, err := r.Recommend(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, core.IsModelUnavailable(err))
	assert.Error(t, r.Ready())
}

func TestRecommend_InferenceFailure(t *testing.T) {
	r := newRecommender(facttest.Loader(), &upOrdersModel{err: errors.New("segfault")})

	_, err := r.Recommend(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, core.IsModelUnavailable(err))
	assert.NoError(t, r.Ready())
}

func TestRecommend_UnknownName(t *testing.T) {
	products := facttest.Products()
	products[0].Name = ""
	loader := fact.NewMemoryLoader(facttest.Orders(), facttest.OrderProducts(), products)
	r := newRecommender(loader, &upOrdersModel{})

	got, err := r.Recommend(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, UnknownName, got[0].Name)
}

func TestRecommend_ResultCache(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	loader := facttest.Loader()
	m := &upOrdersModel{}
	r := newRecommender(loader, m, WithResultCache(s, time.Minute))

	first, err := r.Recommend(ctx, 1)
	require.NoError(t, err)
	second, err := r.Recommend(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), m.calls.Load(), "second request served from cache")
	assert.Equal(t, 1, s.Len())

	// 事实数据变化后版本不同，缓存自然失效
	loader.Replace(facttest.Orders(), facttest.OrderProducts()[:5], facttest.Products())
	_, err = r.Recommend(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), m.calls.Load())
}

type brokenLoader struct{}

func (brokenLoader) Name() string { return "broken" }
func (brokenLoader) Load(context.Context) (*fact.Snapshot, error) {
	return nil, errors.New("db down")
}

func TestRecommend_FactsUnavailable(t *testing.T) {
	r := newRecommender(brokenLoader{}, &upOrdersModel{})
	_, err := r.Recommend(context.Background(), 1)
	assert.ErrorIs(t, err, core.ErrFactsUnavailable)
}

func TestRecommend_Concurrent(t *testing.T) {
	r := newRecommender(facttest.Loader(), &upOrdersModel{})
	want, err := r.Recommend(context.Background(), 1)
	require.NoError(t, err)

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			got, err := r.Recommend(context.Background(), 1)
			if err == nil && len(got) != len(want) {
				err = errors.New("result mismatch")
			}
			errs <- err
		}()
	}
	for range 8 {
		assert.NoError(t, <-errs)
	}
}
