package rank

import (
	"context"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/filter"
	"github.com/rushteam/ripplekit/model"
	"github.com/rushteam/ripplekit/pipeline"
	"github.com/rushteam/ripplekit/rerank"
)

// Recommender 把已读过滤、RippleNet 排序与 Top-N 截断组装成一条标准推荐链路。
//
// 使用场景：
//   - 离线批量生成推荐列表
//   - 在线服务中作为默认编排，免去手工拼 Pipeline
type Recommender struct {
	Model *model.RippleNet

	// History 用户正反馈历史，removeSeen 时用于剔除已交互物品；
	// 不开启 removeSeen 时可为 nil
	History core.HistoryStore

	// MaxConcurrent 排序阶段并行打分上限，<=0 时使用默认值
	MaxConcurrent int
}

// RecommendTopK 对候选集打分并返回得分最高的 k 个物品。
//
// 已读过滤发生在截断之前：开启 removeSeen 时，返回列表长度为
// min(k, 未交互候选数)。分数相同按物品 ID 升序。
func (r *Recommender) RecommendTopK(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []int64,
	k int,
	removeSeen bool,
) ([]*core.Item, error) {
	if r.Model == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: model is nil")
	}
	if k < 1 {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: k must be >= 1")
	}
	if removeSeen && r.History == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: remove_seen requires a history store")
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}

	items := make([]*core.Item, 0, len(candidates))
	for _, id := range candidates {
		items = append(items, core.NewItem(id))
	}

	var nodes []pipeline.Node
	if removeSeen {
		nodes = append(nodes, &filter.FilterNode{
			Filters: []filter.Filter{filter.NewSeenFilter(r.History)},
		})
	}
	nodes = append(nodes,
		&RippleNetNode{Model: r.Model, MaxConcurrent: r.MaxConcurrent},
		&rerank.TopNNode{N: k},
	)

	p := &pipeline.Pipeline{Nodes: nodes}
	return p.Run(ctx, rctx, items)
}
