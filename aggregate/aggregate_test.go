package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
	"github.com/rushteam/basketrec/fact/facttest"
	"github.com/rushteam/basketrec/pkg/optional"
)

func TestEnrich_SkipsOrphans(t *testing.T) {
	ops := append(facttest.OrderProducts(),
		core.OrderProduct{OrderID: 999, ProductID: 1, AddToCartOrder: 1},
		core.OrderProduct{OrderID: 101, ProductID: 999, AddToCartOrder: 3},
	)
	snap := fact.NewSnapshot(facttest.Orders(), ops, facttest.Products())

	e := Enrich(snap)
	assert.Len(t, e.Rows, 12)
	assert.Equal(t, 1, e.SkippedUnknownOrder)
	assert.Equal(t, 1, e.SkippedUnknownProduct)

	first := e.Rows[0]
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, 1, first.OrderNumber)
}

func TestBuildProducts(t *testing.T) {
	tables := Build(facttest.Basket(), Options{})

	tests := []struct {
		id       int64
		orders   int
		reorders int
		rate     optional.Float
	}{
		{1, 3, 2, optional.Of(2.0 / 3.0)},
		{2, 4, 2, optional.Of(0.5)},
		{3, 3, 1, optional.Of(1.0 / 3.0)},
		{4, 2, 0, optional.Of(0)},
		{5, 0, 0, optional.Undefined()},
	}
	for _, tt := range tests {
		st, ok := tables.Products[tt.id]
		require.True(t, ok, "product %d", tt.id)
		assert.Equal(t, tt.orders, st.Orders, "product %d orders", tt.id)
		assert.Equal(t, tt.reorders, st.Reorders, "product %d reorders", tt.id)
		assert.Equal(t, tt.rate.Valid, st.ReorderRate.Valid, "product %d rate defined", tt.id)
		assert.InDelta(t, tt.rate.V, st.ReorderRate.V, 1e-12, "product %d rate", tt.id)
	}
}

func TestBuildProducts_ReorderRateBounds(t *testing.T) {
	tables := Build(facttest.Basket(), Options{})
	for id, st := range tables.Products {
		if st.Orders == 0 {
			assert.False(t, st.ReorderRate.Valid, "product %d: rate must be undefined, not zero", id)
			continue
		}
		v, ok := st.ReorderRate.Get()
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestBuildUsers(t *testing.T) {
	tables := Build(facttest.Basket(), Options{})

	u1 := tables.Users[1]
	assert.Equal(t, 3, u1.TotalOrders)
	assert.Equal(t, 7, u1.TotalItems)
	assert.Equal(t, 4, u1.DistinctItems)
	assert.Equal(t, optional.Of(10.5), u1.AvgDaysBetween)
	assert.InDelta(t, 7.0/3.0, u1.AvgBasket.V, 1e-12)

	u2 := tables.Users[2]
	assert.Equal(t, 2, u2.TotalOrders)
	assert.Equal(t, 5, u2.TotalItems)
	assert.Equal(t, 3, u2.DistinctItems)
	assert.Equal(t, optional.Of(30), u2.AvgDaysBetween)
	assert.Equal(t, optional.Of(2.5), u2.AvgBasket)

	for uid, st := range tables.Users {
		require.Positive(t, st.TotalOrders)
		assert.InDelta(t, float64(st.TotalItems)/float64(st.TotalOrders), st.AvgBasket.V, 1e-12, "user %d", uid)
	}
}

func TestBuildUsers_SingleOrderHasUndefinedGap(t *testing.T) {
	orders := []core.Order{{ID: 1, UserID: 9, EvalSet: core.EvalSetPrior, OrderNumber: 1}}
	rows := []EnrichedAssociation{{OrderProduct: core.OrderProduct{OrderID: 1, ProductID: 1, AddToCartOrder: 1}, UserID: 9, OrderNumber: 1}}

	st := BuildUsers(orders, rows)[9]
	assert.False(t, st.AvgDaysBetween.Valid)
	assert.Equal(t, optional.Of(1), st.AvgBasket)
}

func TestBuildUserProducts(t *testing.T) {
	tables := Build(facttest.Basket(), Options{})

	tests := []struct {
		user, product int64
		want          UserProductStat
	}{
		{1, 1, UserProductStat{Orders: 3, LastOrder: OrderRef{Number: 3, ID: 103}, SumCartPos: 4}},
		{1, 2, UserProductStat{Orders: 2, LastOrder: OrderRef{Number: 2, ID: 102}, SumCartPos: 5}},
		{1, 3, UserProductStat{Orders: 1, LastOrder: OrderRef{Number: 2, ID: 102}, SumCartPos: 2}},
		{1, 4, UserProductStat{Orders: 1, LastOrder: OrderRef{Number: 3, ID: 103}, SumCartPos: 1}},
		{2, 2, UserProductStat{Orders: 2, LastOrder: OrderRef{Number: 2, ID: 202}, SumCartPos: 2}},
		{2, 3, UserProductStat{Orders: 2, LastOrder: OrderRef{Number: 2, ID: 202}, SumCartPos: 4}},
		{2, 4, UserProductStat{Orders: 1, LastOrder: OrderRef{Number: 2, ID: 202}, SumCartPos: 3}},
	}
	assert.Len(t, tables.UserProducts, len(tests))
	for _, tt := range tests {
		got, ok := tables.UserProduct(tt.user, tt.product)
		require.True(t, ok, "pair (%d,%d)", tt.user, tt.product)
		assert.Equal(t, tt.want, got, "pair (%d,%d)", tt.user, tt.product)
	}
	_, ok := tables.UserProduct(2, 1)
	assert.False(t, ok)
}

func TestBuildUserProducts_TwoPriorOrders(t *testing.T) {
	orders := []core.Order{
		{ID: 10, UserID: 3, EvalSet: core.EvalSetPrior, OrderNumber: 1},
		{ID: 11, UserID: 3, EvalSet: core.EvalSetPrior, OrderNumber: 2, DaysSincePrior: optional.Of(5)},
	}
	ops := []core.OrderProduct{
		{OrderID: 10, ProductID: 42, AddToCartOrder: 1},
		{OrderID: 11, ProductID: 42, AddToCartOrder: 2, Reordered: true},
	}
	products := []core.Product{{ID: 42, Name: "P", DepartmentID: 1, AisleID: 1}}

	tables := Build(fact.NewSnapshot(orders, ops, products), Options{})
	st, ok := tables.UserProduct(3, 42)
	require.True(t, ok)
	assert.Equal(t, 2, st.Orders)
	assert.Equal(t, int64(11), st.LastOrder.ID)
	assert.Equal(t, 3, st.SumCartPos)
}

func TestBuildUserProducts_NoKeyCollision(t *testing.T) {
	// product + user*100000 would map both pairs to 200000
	rows := []EnrichedAssociation{
		{OrderProduct: core.OrderProduct{OrderID: 1, ProductID: 100000, AddToCartOrder: 1}, UserID: 1, OrderNumber: 1},
		{OrderProduct: core.OrderProduct{OrderID: 2, ProductID: 0, AddToCartOrder: 4}, UserID: 2, OrderNumber: 1},
	}
	got := BuildUserProducts(rows, 1)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[PairKey{UserID: 1, ProductID: 100000}].SumCartPos)
	assert.Equal(t, 4, got[PairKey{UserID: 2, ProductID: 0}].SumCartPos)
}

func TestOrderRef_TieBreak(t *testing.T) {
	a := OrderRef{Number: 2, ID: 5}
	b := OrderRef{Number: 2, ID: 9}
	c := OrderRef{Number: 3, ID: 1}

	assert.True(t, b.After(a))
	assert.False(t, a.After(b))
	assert.True(t, c.After(b))
	assert.False(t, a.After(a))
}

func TestUserProductStat_CombineLaws(t *testing.T) {
	a := UserProductStat{Orders: 1, LastOrder: OrderRef{Number: 1, ID: 7}, SumCartPos: 2}
	b := UserProductStat{Orders: 2, LastOrder: OrderRef{Number: 4, ID: 3}, SumCartPos: 5}
	c := UserProductStat{Orders: 1, LastOrder: OrderRef{Number: 4, ID: 9}, SumCartPos: 1}

	assert.Equal(t, a.Combine(b), b.Combine(a), "commutative")
	assert.Equal(t, a.Combine(b).Combine(c), a.Combine(b.Combine(c)), "associative")
	assert.Equal(t, a, UserProductStat{}.Combine(a), "identity")
	assert.Equal(t, OrderRef{Number: 4, ID: 9}, a.Combine(b).Combine(c).LastOrder)
}

func TestReduceSharded_MatchesSequential(t *testing.T) {
	var rows []EnrichedAssociation
	for i := range 500 {
		rows = append(rows, EnrichedAssociation{
			OrderProduct: core.OrderProduct{
				OrderID:        int64(i/7 + 1),
				ProductID:      int64(i % 13),
				AddToCartOrder: i%5 + 1,
				Reordered:      i%3 == 0,
			},
			UserID:      int64(i % 4),
			OrderNumber: i/7 + 1,
		})
	}
	want := reduce(rows)
	for _, shards := range []int{2, 3, 8, 64} {
		assert.Equal(t, want, reduceSharded(rows, shards), "shards=%d", shards)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(facttest.Basket(), Options{Shards: 1})
	b := Build(facttest.Basket(), Options{Shards: 4})
	assert.Equal(t, a.Version, b.Version)
	assert.Equal(t, a.Products, b.Products)
	assert.Equal(t, a.Users, b.Users)
	assert.Equal(t, a.UserProducts, b.UserProducts)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, a.Catalogue)
	assert.True(t, a.HasUser(1))
	assert.False(t, a.HasUser(3))
}
