package recall

import (
	"context"
	"testing"

	"github.com/rushteam/ripplekit/core"
)

func TestStaticCandidates(t *testing.T) {
	node := &StaticCandidates{IDs: []int64{3, 4, 4, 5}}
	items := []*core.Item{core.NewItem(1), core.NewItem(3)}

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: 1}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []int64{1, 3, 4, 5}
	if len(out) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("item %d: got id %d, want %d", i, out[i].ID, id)
		}
	}
	// 注入的候选带来源标签，上游已有的不打标
	if _, ok := out[1].Labels["recall_source"]; ok {
		t.Errorf("existing item should not be labeled")
	}
	if lbl, ok := out[2].Labels["recall_source"]; !ok || lbl.Value != "static" {
		t.Errorf("injected item missing recall_source label")
	}
}
