// Package rank 提供基于 RippleNet 的打分与 Top-K 推荐。
package rank

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/model"
	"github.com/rushteam/ripplekit/pipeline"
	"github.com/rushteam/ripplekit/pkg/utils"
)

// RippleNetNode 是排序 Node：用 RippleNet 对候选物品打分并按分数降序排列。
//
// 工程特征：
//   - 打分只读模型参数，候选间可安全并行
//   - 波纹集来自 rctx.Ripples（离线构建、在线复用），缺失按退化用户处理
//   - 分数相同时按物品 ID 升序，保证排序结果确定
type RippleNetNode struct {
	Model *model.RippleNet

	// MaxConcurrent 并行打分上限，<=0 时使用默认值 8
	MaxConcurrent int
}

func (n *RippleNetNode) Name() string {
	return "rank.ripplenet"
}

func (n *RippleNetNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *RippleNetNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: model is nil")
	}
	if len(items) == 0 {
		return items, nil
	}

	var ripples core.UserRipples
	if rctx != nil {
		ripples = rctx.Ripples
	}

	limit := n.MaxConcurrent
	if limit <= 0 {
		limit = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := n.Model.Predict(ripples, item.ID)
			if err != nil {
				return err
			}
			item.Score = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	for _, item := range out {
		item.PutLabel("ranker", utils.Label{Value: "ripplenet", Source: n.Name()})
	}
	return out, nil
}

var _ pipeline.Node = (*RippleNetNode)(nil)
