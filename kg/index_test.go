package kg

import (
	"testing"

	"github.com/rushteam/ripplekit/core"
)

func TestNewIndex_Neighbors(t *testing.T) {
	triples := []core.Triple{
		{Head: 0, Relation: 0, Tail: 1},
		{Head: 0, Relation: 1, Tail: 2},
		{Head: 1, Relation: 0, Tail: 2},
		{Head: 0, Relation: 0, Tail: 1}, // 重复三元组保留
	}

	ix, err := NewIndex(4, 2, triples)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	if got := len(ix.Neighbors(0)); got != 3 {
		t.Errorf("Neighbors(0) len = %d, want 3 (duplicates kept)", got)
	}
	if got := len(ix.Neighbors(1)); got != 1 {
		t.Errorf("Neighbors(1) len = %d, want 1", got)
	}
	// 无出边的实体：terminal frontier
	if got := ix.Neighbors(3); len(got) != 0 {
		t.Errorf("Neighbors(3) = %v, want empty", got)
	}
	if ix.NumTriple() != 4 {
		t.Errorf("NumTriple() = %d, want 4", ix.NumTriple())
	}
}

func TestNewIndex_DataIntegrity(t *testing.T) {
	tests := []struct {
		name    string
		triples []core.Triple
	}{
		{"head out of range", []core.Triple{{Head: 9, Relation: 0, Tail: 1}}},
		{"tail out of range", []core.Triple{{Head: 0, Relation: 0, Tail: -1}}},
		{"relation out of range", []core.Triple{{Head: 0, Relation: 5, Tail: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(3, 2, tt.triples)
			if !core.IsDataIntegrity(err) {
				t.Errorf("NewIndex() error = %v, want DATA_INTEGRITY", err)
			}
		})
	}
}

func TestNewIndex_InvalidConfig(t *testing.T) {
	if _, err := NewIndex(0, 1, nil); !core.IsInvalidConfig(err) {
		t.Errorf("NewIndex(0, 1) error = %v, want INVALID_CONFIG", err)
	}
}
