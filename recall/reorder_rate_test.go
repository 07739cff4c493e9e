package recall

import (
	"context"
	"testing"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/fact"
	"github.com/rushteam/basketrec/fact/facttest"
)

func TestSelectCandidates(t *testing.T) {
	tables := aggregate.Build(facttest.Basket(), aggregate.Options{})

	tests := []struct {
		name string
		n    int
		want []int64
	}{
		{"all defined products by rate desc", 1000, []int64{1, 2, 3, 4}},
		{"truncated", 2, []int64{1, 2}},
		{"zero", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectCandidates(tables, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("SelectCandidates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SelectCandidates()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectCandidates_StableTies(t *testing.T) {
	// 商品 30、10、20 复购率都是 0.5，按目录顺序输出
	orders := []core.Order{{ID: 1, UserID: 1, EvalSet: core.EvalSetPrior, OrderNumber: 1}}
	var ops []core.OrderProduct
	for i, pid := range []int64{30, 10, 20} {
		ops = append(ops,
			core.OrderProduct{OrderID: 1, ProductID: pid, AddToCartOrder: 2*i + 1},
			core.OrderProduct{OrderID: 1, ProductID: pid, AddToCartOrder: 2*i + 2, Reordered: true},
		)
	}
	products := []core.Product{
		{ID: 30, DepartmentID: 1, AisleID: 1},
		{ID: 10, DepartmentID: 1, AisleID: 1},
		{ID: 20, DepartmentID: 1, AisleID: 1},
	}
	tables := aggregate.Build(fact.NewSnapshot(orders, ops, products), aggregate.Options{})

	got := SelectCandidates(tables, 10)
	want := []int64{30, 10, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SelectCandidates() = %v, want %v", got, want)
		}
	}
}

func TestReorderRate_Process(t *testing.T) {
	tables := aggregate.Build(facttest.Basket(), aggregate.Options{})
	ctx := aggregate.NewContext(context.Background(), tables)

	node := &ReorderRate{TopN: 3}
	items, err := node.Process(ctx, core.NewRecommendContext(2), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	for _, it := range items {
		if it.UserID != 2 {
			t.Errorf("item %d UserID = %d, want 2", it.ID, it.UserID)
		}
		if it.Labels["recall_source"].Value != "recall.reorder_rate" {
			t.Errorf("item %d missing recall_source label", it.ID)
		}
	}
}

func TestReorderRate_MissingTables(t *testing.T) {
	node := &ReorderRate{}
	if _, err := node.Process(context.Background(), core.NewRecommendContext(1), nil); err == nil {
		t.Fatal("Process() without tables should fail")
	}
}
