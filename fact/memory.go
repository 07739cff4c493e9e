package fact

import (
	"context"
	"sync"

	"github.com/rushteam/basketrec/core"
)

// MemoryLoader 持有内存中的事实数据，用于测试/开发/离线评估。
// Replace 之后的 Load 会得到新版本的快照。
type MemoryLoader struct {
	mu        sync.RWMutex
	snap      *Snapshot
	prior     *Snapshot
	priorOnly bool
}

func NewMemoryLoader(orders []core.Order, ops []core.OrderProduct, products []core.Product) *MemoryLoader {
	return &MemoryLoader{snap: NewSnapshot(orders, ops, products)}
}

// WithPriorOnly 设置是否只保留 prior 订单的关联。
func (m *MemoryLoader) WithPriorOnly(v bool) *MemoryLoader {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorOnly = v
	return m
}

func (m *MemoryLoader) Name() string { return "memory" }

func (m *MemoryLoader) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	snap, prior, priorOnly := m.snap, m.prior, m.priorOnly
	m.mu.RUnlock()
	if !priorOnly {
		return snap, nil
	}
	if prior != nil {
		return prior, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prior == nil {
		m.prior = m.snap.PriorOnly()
	}
	return m.prior, nil
}

// Replace 替换整份事实数据。
func (m *MemoryLoader) Replace(orders []core.Order, ops []core.OrderProduct, products []core.Product) {
	snap := NewSnapshot(orders, ops, products)
	m.mu.Lock()
	m.snap = snap
	m.prior = nil
	m.mu.Unlock()
}
