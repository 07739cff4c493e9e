// Package store 提供 core.Store 的实现，用于推荐结果缓存与黑名单等运行期数据。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/basketrec/core"
)

// 后端类型
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options 描述要创建的存储后端。
type Options struct {
	Backend   string
	RedisAddr string
	RedisDB   int
	Timeout   time.Duration
}

// Open 按 Options 创建存储；Backend 为 none 或空时返回 (nil, nil)。
func Open(ctx context.Context, opts Options) (core.Store, error) {
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}
		rs, err := NewRedisStore(ctx, opts.RedisAddr, opts.RedisDB)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown backend %q", opts.Backend))
	}
}
