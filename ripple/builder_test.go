package ripple

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/kg"
)

func chainIndex(t *testing.T) *kg.Index {
	t.Helper()
	// 链式图：0 -> 1 -> 2 -> 3
	ix, err := kg.NewIndex(4, 1, []core.Triple{
		{Head: 0, Relation: 0, Tail: 1},
		{Head: 1, Relation: 0, Tail: 2},
		{Head: 2, Relation: 0, Tail: 3},
	})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	return ix
}

func TestBuildUser_ChainWithReplacement(t *testing.T) {
	b, err := NewBuilder(chainIndex(t), 2, 2, 42)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	ripples, err := b.BuildUser(7, []int64{0})
	if err != nil {
		t.Fatalf("BuildUser() error = %v", err)
	}

	// hop-1 池为 {(0,0,1)}，池大小 1 < n_memory 2：有放回采样得到两份 (0,0,1)
	want1 := core.RippleSet{{Head: 0, Relation: 0, Tail: 1}, {Head: 0, Relation: 0, Tail: 1}}
	if !reflect.DeepEqual(ripples[0], want1) {
		t.Errorf("hop-1 = %v, want %v", ripples[0], want1)
	}
	// hop-2 frontier 为 {1}，池 {(1,0,2)}：两份 (1,0,2)
	want2 := core.RippleSet{{Head: 1, Relation: 0, Tail: 2}, {Head: 1, Relation: 0, Tail: 2}}
	if !reflect.DeepEqual(ripples[1], want2) {
		t.Errorf("hop-2 = %v, want %v", ripples[1], want2)
	}
}

func TestBuildUser_Invariants(t *testing.T) {
	// 稠密图：每个实体都有多条出边
	triples := []core.Triple{}
	for h := int64(0); h < 10; h++ {
		for tail := int64(0); tail < 10; tail++ {
			if tail != h {
				triples = append(triples, core.Triple{Head: h, Relation: h % 3, Tail: tail})
			}
		}
	}
	ix, err := kg.NewIndex(10, 3, triples)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	const numHops, memorySize = 3, 4
	b, err := NewBuilder(ix, numHops, memorySize, 1)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	ripples, err := b.BuildUser(3, []int64{0, 1})
	if err != nil {
		t.Fatalf("BuildUser() error = %v", err)
	}

	// 每跳长度恰好为 n_memory
	for k, rs := range ripples {
		if len(rs) != memorySize {
			t.Errorf("hop-%d len = %d, want %d", k+1, len(rs), memorySize)
		}
	}

	// 每跳的 head 必须属于上一跳 frontier（hop-1 时为用户历史）
	frontier := map[int64]bool{0: true, 1: true}
	for k, rs := range ripples {
		next := make(map[int64]bool)
		for _, tr := range rs {
			if !frontier[tr.Head] {
				t.Errorf("hop-%d triple %v head not in previous frontier %v", k+1, tr, frontier)
			}
			next[tr.Tail] = true
		}
		frontier = next
	}
}

func TestBuildUser_Deterministic(t *testing.T) {
	ix := chainIndex(t)
	b1, _ := NewBuilder(ix, 2, 2, 99)
	b2, _ := NewBuilder(ix, 2, 2, 99)

	r1, err := b1.BuildUser(5, []int64{0})
	if err != nil {
		t.Fatalf("BuildUser() error = %v", err)
	}
	r2, err := b2.BuildUser(5, []int64{0})
	if err != nil {
		t.Fatalf("BuildUser() error = %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("same seed produced different ripple sets: %v vs %v", r1, r2)
	}
}

func TestBuildUser_EmptyPoolCarriesForward(t *testing.T) {
	// 实体 3 无出边：frontier 到达 3 后池为空
	b, err := NewBuilder(chainIndex(t), 4, 2, 7)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	ripples, err := b.BuildUser(1, []int64{2})
	if err != nil {
		t.Fatalf("BuildUser() error = %v", err)
	}

	want := core.RippleSet{{Head: 2, Relation: 0, Tail: 3}, {Head: 2, Relation: 0, Tail: 3}}
	for k := 0; k < 4; k++ {
		if !reflect.DeepEqual(ripples[k], want) {
			t.Errorf("hop-%d = %v, want carried-forward %v", k+1, ripples[k], want)
		}
	}
}

func TestBuildUser_EmptyHistory(t *testing.T) {
	b, err := NewBuilder(chainIndex(t), 2, 2, 7)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	ripples, err := b.BuildUser(9, nil)
	if err != nil {
		t.Fatalf("BuildUser() error = %v", err)
	}
	if !ripples.Empty() {
		t.Errorf("empty-history user ripples = %v, want all empty", ripples)
	}
}

func TestBuildUser_SeedOutOfRange(t *testing.T) {
	b, _ := NewBuilder(chainIndex(t), 2, 2, 7)
	if _, err := b.BuildUser(1, []int64{100}); !core.IsDataIntegrity(err) {
		t.Errorf("BuildUser(seed=100) error = %v, want DATA_INTEGRITY", err)
	}
}

func TestBuildAll_Parallel(t *testing.T) {
	b, err := NewBuilder(chainIndex(t), 2, 2, 42)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	history := core.History{}
	for u := int64(0); u < 50; u++ {
		history[u] = []int64{u % 4}
	}

	all, err := b.BuildAll(context.Background(), history)
	if err != nil {
		t.Fatalf("BuildAll() error = %v", err)
	}
	if len(all) != 50 {
		t.Fatalf("BuildAll() returned %d users, want 50", len(all))
	}

	// 并发构建与单独构建结果一致（确定性不依赖调度）
	for u := int64(0); u < 50; u++ {
		want, err := b.BuildUser(u, history[u])
		if err != nil {
			t.Fatalf("BuildUser(%d) error = %v", u, err)
		}
		if !reflect.DeepEqual(all[u], want) {
			t.Errorf("user %d: BuildAll = %v, BuildUser = %v", u, all[u], want)
		}
	}
}

func TestNewBuilder_InvalidConfig(t *testing.T) {
	ix := chainIndex(t)
	tests := []struct {
		name       string
		numHops    int
		memorySize int
	}{
		{"numHops < 1", 0, 2},
		{"memorySize < 1", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBuilder(ix, tt.numHops, tt.memorySize, 0); !core.IsInvalidConfig(err) {
				t.Errorf("NewBuilder() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}
