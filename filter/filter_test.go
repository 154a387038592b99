package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/ripplekit/core"
)

type fakeHistory struct {
	histories map[int64][]int64
	err       error
	calls     int
}

func (f *fakeHistory) GetUserHistory(_ context.Context, userID int64) ([]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[userID], nil
}

func TestSeenFilter(t *testing.T) {
	history := &fakeHistory{histories: map[int64][]int64{1: {10, 20}}}
	f := NewSeenFilter(history)
	rctx := &core.RecommendContext{UserID: 1}

	tests := []struct {
		name   string
		itemID int64
		want   bool
	}{
		{"seen item filtered", 10, true},
		{"another seen item filtered", 20, true},
		{"unseen item kept", 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.itemID))
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter(%d) = %v, want %v", tt.itemID, got, tt.want)
			}
		})
	}

	// 同一用户的历史只回源一次
	if history.calls != 1 {
		t.Errorf("expected 1 history fetch, got %d", history.calls)
	}
}

func TestSeenFilter_UnknownUserKeepsAll(t *testing.T) {
	f := NewSeenFilter(&fakeHistory{histories: map[int64][]int64{}})
	rctx := &core.RecommendContext{UserID: 42}

	got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(10))
	if err != nil {
		t.Fatalf("ShouldFilter: %v", err)
	}
	if got {
		t.Errorf("item filtered for user without history")
	}
}

func TestFilterNode(t *testing.T) {
	history := &fakeHistory{histories: map[int64][]int64{1: {10}}}
	node := &FilterNode{Filters: []Filter{NewSeenFilter(history)}}
	rctx := &core.RecommendContext{UserID: 1}
	items := []*core.Item{core.NewItem(10), core.NewItem(20), nil, core.NewItem(30)}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	for _, item := range out {
		if item.ID == 10 {
			t.Errorf("seen item passed the filter node")
		}
	}
	// 被过滤的物品带上过滤原因标签
	if lbl, ok := items[0].Labels["filtered"]; !ok || lbl.Source != "filter.seen" {
		t.Errorf("filtered item missing reason label: %+v", items[0].Labels)
	}
}

func TestFilterNode_PropagatesStoreError(t *testing.T) {
	wantErr := errors.New("store down")
	node := &FilterNode{Filters: []Filter{NewSeenFilter(&fakeHistory{err: wantErr})}}
	rctx := &core.RecommendContext{UserID: 1}

	_, err := node.Process(context.Background(), rctx, []*core.Item{core.NewItem(10)})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestDSLFilter(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		score float64
		want  bool
	}{
		{"low score filtered", "item.score < 0.2", 0.1, true},
		{"high score kept", "item.score < 0.2", 0.9, false},
		{"id match filtered", "item.id == 7", 0.5, true},
		{"compound expression", "item.score > 0.3 && item.score < 0.6", 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewDSLFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewDSLFilter: %v", err)
			}
			item := core.NewItem(7)
			item.Score = tt.score
			got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{UserID: 1}, item)
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tt.want {
				t.Errorf("expr %q on score %v = %v, want %v", tt.expr, tt.score, got, tt.want)
			}
		})
	}
}

func TestNewDSLFilter_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty expression", ""},
		{"syntax error", "item.score >"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDSLFilter(tt.expr); !core.IsInvalidConfig(err) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}
