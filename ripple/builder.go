// Package ripple 实现 Ripple Set 构建：以用户正反馈历史为种子 frontier，
// 在知识图谱上逐跳外扩采样，为每个用户物化 H 个固定大小的三元组样本。
package ripple

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/kg"
)

// Builder 为每个用户构建 H 跳的 Ripple Set。
//
// 核心思想：
//   - frontier 初始化为用户正反馈历史
//   - 每跳：收集 frontier 所有出边构成候选池，采样 n_memory 条三元组
//   - 池不足 n_memory 时有放回均匀采样补齐；足够时无放回采样
//   - 下一跳 frontier = 本跳采样结果（而非全池）中的去重 tail 集合
//   - 池为空时：沿用上一跳的 Ripple Set（若存在），并停止继续外扩
//
// 工程特征：
//   - 按用户"尴尬并行"：只共享只读的 kg.Index，无共享可变状态
//   - 确定性：每个用户的随机流由 Seed+UserID 派生，与调度顺序无关
//   - 构建一次，训练各 epoch 与推理复用
type Builder struct {
	// Index 是只读的知识图谱邻接索引
	Index *kg.Index

	// NumHops 是外扩跳数 H，必须 >= 1
	NumHops int

	// MemorySize 是每跳固定采样条数 n_memory，必须 >= 1
	MemorySize int

	// Seed 是随机种子；每个用户的随机流由 Seed+UserID 派生
	Seed int64

	// MaxConcurrent 是 BuildAll 的最大并发数（0 表示 GOMAXPROCS 自适应，这里取 8）
	MaxConcurrent int
}

// NewBuilder 创建 Ripple Set 构建器，非法超参数在此 fail-fast。
func NewBuilder(index *kg.Index, numHops, memorySize int, seed int64) (*Builder, error) {
	if index == nil {
		return nil, core.NewDomainError(core.ModuleRipple, core.ErrorCodeInvalidConfig,
			"ripple: index is required")
	}
	if numHops < 1 {
		return nil, core.NewDomainError(core.ModuleRipple, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("ripple: numHops=%d, must be >= 1", numHops))
	}
	if memorySize < 1 {
		return nil, core.NewDomainError(core.ModuleRipple, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("ripple: memorySize=%d, must be >= 1", memorySize))
	}
	return &Builder{
		Index:      index,
		NumHops:    numHops,
		MemorySize: memorySize,
		Seed:       seed,
	}, nil
}

// BuildAll 并发构建全部用户的 Ripple Set。
// history 中未出现的用户视为空历史用户：不在返回结果中，
// 查不到时按全空 Ripple Set 处理（见 model 包的退化路径）。
func (b *Builder) BuildAll(ctx context.Context, history core.History) (map[int64]core.UserRipples, error) {
	out := make(map[int64]core.UserRipples, len(history))

	var (
		mu    sync.Mutex
		eg, _ = errgroup.WithContext(ctx)
	)

	maxConcurrent := b.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	eg.SetLimit(maxConcurrent)

	for userID, items := range history {
		uid, seeds := userID, items
		eg.Go(func() error {
			ripples, err := b.BuildUser(uid, seeds)
			if err != nil {
				return err
			}
			mu.Lock()
			out[uid] = ripples
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BuildUser 构建单个用户的 H 跳 Ripple Set。
// 种子物品 ID 越界是数据完整性错误。
func (b *Builder) BuildUser(userID int64, seeds []int64) (core.UserRipples, error) {
	for _, s := range seeds {
		if !b.Index.Contains(s) {
			return nil, core.NewDomainError(core.ModuleRipple, core.ErrorCodeDataIntegrity,
				fmt.Sprintf("ripple: user %d seed item %d out of entity range [0,%d)", userID, s, b.Index.NumEntity()))
		}
	}

	rng := rand.New(rand.NewSource(b.Seed + userID))
	ripples := make(core.UserRipples, b.NumHops)

	frontier := make([]int64, len(seeds))
	copy(frontier, seeds)

	for hop := 0; hop < b.NumHops; hop++ {
		pool := b.collectPool(frontier)

		if len(pool) == 0 {
			// 空池：沿用上一跳的采样结果（若有），之后所有更深的跳保持一致，
			// 不再外扩 frontier。这样对全跳求和的模型不会丢失浅层信号。
			var carry core.RippleSet
			if hop > 0 {
				carry = ripples[hop-1]
			}
			for k := hop; k < b.NumHops; k++ {
				ripples[k] = carry
			}
			break
		}

		ripples[hop] = sampleTriples(pool, b.MemorySize, rng)
		frontier = distinctTails(ripples[hop])
	}

	return ripples, nil
}

// collectPool 收集 frontier 所有实体的出边，展开为三元组候选池。
func (b *Builder) collectPool(frontier []int64) []core.Triple {
	var pool []core.Triple
	for _, h := range frontier {
		for _, e := range b.Index.Neighbors(h) {
			pool = append(pool, core.Triple{Head: h, Relation: e.Relation, Tail: e.Tail})
		}
	}
	return pool
}

// sampleTriples 从候选池采样恰好 n 条三元组：
// 池不足 n 时有放回均匀采样，足够时无放回采样。
func sampleTriples(pool []core.Triple, n int, rng *rand.Rand) core.RippleSet {
	out := make(core.RippleSet, n)
	if len(pool) < n {
		for i := 0; i < n; i++ {
			out[i] = pool[rng.Intn(len(pool))]
		}
		return out
	}
	for i, j := range rng.Perm(len(pool))[:n] {
		out[i] = pool[j]
	}
	return out
}

// distinctTails 返回采样结果中去重后的 tail 实体集合（下一跳 frontier）。
// 遍历顺序保持首次出现顺序，保证确定性。
func distinctTails(rs core.RippleSet) []int64 {
	seen := make(map[int64]bool, len(rs))
	out := make([]int64, 0, len(rs))
	for _, t := range rs {
		if !seen[t.Tail] {
			seen[t.Tail] = true
			out = append(out, t.Tail)
		}
	}
	return out
}
