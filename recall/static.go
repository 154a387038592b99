// Package recall 提供候选注入节点。
// RippleNet 只负责排序，候选集由上游业务给定，这里把候选注入标准化为 Node。
package recall

import (
	"context"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/pipeline"
	"github.com/rushteam/ripplekit/pkg/utils"
)

// StaticCandidates 把固定候选列表注入链路，与上游已有 items 合并去重。
//
// 使用场景：
//   - 运营位/兜底候选
//   - 离线评估时的全量候选注入
type StaticCandidates struct {
	IDs []int64
}

func (n *StaticCandidates) Name() string {
	return "recall.static"
}

func (n *StaticCandidates) Kind() pipeline.Kind {
	return pipeline.KindRecall
}

func (n *StaticCandidates) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	seen := make(map[int64]bool, len(items)+len(n.IDs))
	out := make([]*core.Item, 0, len(items)+len(n.IDs))
	for _, item := range items {
		if item == nil || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	for _, id := range n.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		item := core.NewItem(id)
		item.PutLabel("recall_source", utils.Label{Value: "static", Source: n.Name()})
		out = append(out, item)
	}
	return out, nil
}

var _ pipeline.Node = (*StaticCandidates)(nil)
