package rank

import (
	"context"
	"testing"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/model"
	"github.com/rushteam/ripplekit/store"
)

func newTestModel(t *testing.T) *model.RippleNet {
	t.Helper()
	cfg := model.Config{
		Dim:            4,
		NumHops:        2,
		MemorySize:     2,
		KGEWeight:      0.01,
		L2Weight:       1e-6,
		LearningRate:   0.02,
		ItemUpdateMode: model.UpdatePlus,
		UseAllHops:     true,
		Optimizer:      "sgd",
		Seed:           11,
	}
	params, err := model.NewParams(10, 2, cfg.Dim, cfg.Seed)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	m, err := model.New(cfg, params)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func testRipples() core.UserRipples {
	return core.UserRipples{
		{
			{Head: 0, Relation: 0, Tail: 1},
			{Head: 0, Relation: 1, Tail: 2},
		},
		{
			{Head: 1, Relation: 0, Tail: 3},
			{Head: 2, Relation: 1, Tail: 4},
		},
	}
}

func TestRippleNetNode_SortsByScoreDescending(t *testing.T) {
	m := newTestModel(t)
	node := &RippleNetNode{Model: m}
	rctx := &core.RecommendContext{UserID: 1, Ripples: testRipples()}

	candidates := []int64{5, 6, 7, 8, 9}
	items := make([]*core.Item, 0, len(candidates))
	for _, id := range candidates {
		items = append(items, core.NewItem(id))
	}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != len(candidates) {
		t.Fatalf("expected %d items, got %d", len(candidates), len(out))
	}
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if prev.Score < cur.Score {
			t.Errorf("items not sorted: score[%d]=%v < score[%d]=%v", i-1, prev.Score, i, cur.Score)
		}
		if prev.Score == cur.Score && prev.ID > cur.ID {
			t.Errorf("tie not broken by id ascending: %d before %d", prev.ID, cur.ID)
		}
	}
	for _, item := range out {
		if item.Score <= 0 || item.Score >= 1 {
			t.Errorf("item %d: score %v out of (0, 1)", item.ID, item.Score)
		}
		if _, ok := item.Labels["ranker"]; !ok {
			t.Errorf("item %d: missing ranker label", item.ID)
		}
	}
}

func TestRippleNetNode_DeterministicScores(t *testing.T) {
	m := newTestModel(t)
	node := &RippleNetNode{Model: m}
	rctx := &core.RecommendContext{UserID: 1, Ripples: testRipples()}

	run := func() []float64 {
		items := []*core.Item{core.NewItem(5), core.NewItem(6), core.NewItem(7)}
		out, err := node.Process(context.Background(), rctx, items)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		scores := make([]float64, len(out))
		for i, item := range out {
			scores[i] = item.Score
		}
		return scores
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("score %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestPredictor_PredictBatch(t *testing.T) {
	m := newTestModel(t)
	p, err := NewPredictor(m)
	if err != nil {
		t.Fatalf("NewPredictor: %v", err)
	}
	ripples := map[int64]core.UserRipples{1: testRipples()}
	rows := []core.Pair{
		{UserID: 1, ItemID: 5},
		{UserID: 1, ItemID: 6},
		{UserID: 2, ItemID: 5}, // 无波纹集的退化用户
	}

	out, err := p.PredictBatch(context.Background(), rows, ripples)
	if err != nil {
		t.Fatalf("PredictBatch: %v", err)
	}
	if len(out) != len(rows) {
		t.Fatalf("expected %d predictions, got %d", len(rows), len(out))
	}
	for i, pred := range out {
		if pred.UserID != rows[i].UserID || pred.ItemID != rows[i].ItemID {
			t.Errorf("prediction %d: order not preserved: got (%d,%d)", i, pred.UserID, pred.ItemID)
		}
		if pred.Score <= 0 || pred.Score >= 1 {
			t.Errorf("prediction %d: score %v out of (0, 1)", i, pred.Score)
		}
		wantLabel := 0.0
		if pred.Score >= 0.5 {
			wantLabel = 1.0
		}
		if pred.Label != wantLabel {
			t.Errorf("prediction %d: label %v, want %v", i, pred.Label, wantLabel)
		}
	}
	// 退化用户输出常数概率
	if out[2].Score != 0.5 {
		t.Errorf("degenerate user: score %v, want 0.5", out[2].Score)
	}
}

func TestPredictor_ItemOutOfRange(t *testing.T) {
	m := newTestModel(t)
	p, err := NewPredictor(m)
	if err != nil {
		t.Fatalf("NewPredictor: %v", err)
	}
	rows := []core.Pair{{UserID: 1, ItemID: 99}}

	_, err = p.PredictBatch(context.Background(), rows, nil)
	if !core.IsDataIntegrity(err) {
		t.Errorf("expected DATA_INTEGRITY, got %v", err)
	}
}

func TestRecommender_RemoveSeen(t *testing.T) {
	m := newTestModel(t)
	history := store.NewMemoryHistoryStore()
	history.SetUserHistory(1, []int64{5, 6})

	r := &Recommender{Model: m, History: history}
	rctx := &core.RecommendContext{UserID: 1, Ripples: testRipples()}
	candidates := []int64{5, 6, 7, 8, 9}

	out, err := r.RecommendTopK(context.Background(), rctx, candidates, 10, true)
	if err != nil {
		t.Fatalf("RecommendTopK: %v", err)
	}
	// 已交互物品在截断之前剔除：返回 min(k, 未交互候选数) 个
	if len(out) != 3 {
		t.Fatalf("expected 3 items, got %d", len(out))
	}
	for _, item := range out {
		if item.ID == 5 || item.ID == 6 {
			t.Errorf("seen item %d returned", item.ID)
		}
	}
}

func TestRecommender_TopKTruncates(t *testing.T) {
	m := newTestModel(t)
	r := &Recommender{Model: m}
	rctx := &core.RecommendContext{UserID: 1, Ripples: testRipples()}

	out, err := r.RecommendTopK(context.Background(), rctx, []int64{5, 6, 7, 8, 9}, 2, false)
	if err != nil {
		t.Fatalf("RecommendTopK: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if out[0].Score < out[1].Score {
		t.Errorf("top-k not sorted: %v < %v", out[0].Score, out[1].Score)
	}
}

func TestRecommender_InvalidArgs(t *testing.T) {
	m := newTestModel(t)
	tests := []struct {
		name       string
		r          *Recommender
		k          int
		removeSeen bool
	}{
		{"nil model", &Recommender{}, 5, false},
		{"zero k", &Recommender{Model: m}, 0, false},
		{"remove seen without history", &Recommender{Model: m}, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.r.RecommendTopK(context.Background(), nil, []int64{5}, tt.k, tt.removeSeen)
			if !core.IsInvalidConfig(err) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}
