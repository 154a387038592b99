package pipeline

import (
	"context"

	"github.com/rushteam/ripplekit/core"
)

// Pipeline 是在线推荐链路的核心抽象：把推荐逻辑拆成可组合的 Node 链。
//
// 典型编排：候选注入 -> 已读过滤 -> RippleNet 排序 -> Top-N 截断。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
