package config

import (
	"fmt"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/filter"
	"github.com/rushteam/ripplekit/model"
	"github.com/rushteam/ripplekit/pipeline"
	"github.com/rushteam/ripplekit/pkg/conv"
	"github.com/rushteam/ripplekit/rank"
	"github.com/rushteam/ripplekit/recall"
	"github.com/rushteam/ripplekit/rerank"
)

// Deps 是构建 Node 需要的运行期依赖：配置文件只描述编排，
// 模型与历史存储由调用方装配后注入。
type Deps struct {
	Model   *model.RippleNet
	History core.HistoryStore
}

// DefaultFactory 返回包含所有内置 Node 的工厂。
//
// 已注册类型：
//   - recall.static 固定候选注入，config: ids
//   - filter.seen   已交互过滤（需要 Deps.History）
//   - filter.dsl    CEL 表达式过滤，config: expr
//   - rank.ripplenet RippleNet 排序（需要 Deps.Model），config: max_concurrent
//   - rerank.topn   Top-N 截断，config: n
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.static", func(cfg map[string]interface{}) (pipeline.Node, error) {
		raw, _ := cfg["ids"].([]interface{})
		ids := make([]int64, 0, len(raw))
		for _, v := range raw {
			id, ok := conv.ToInt(v)
			if !ok {
				return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
					fmt.Sprintf("config: recall.static invalid id %v", v))
			}
			ids = append(ids, int64(id))
		}
		return &recall.StaticCandidates{IDs: ids}, nil
	})

	factory.Register("filter.seen", func(_ map[string]interface{}) (pipeline.Node, error) {
		if deps.History == nil {
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
				"config: filter.seen requires a history store")
		}
		return &filter.FilterNode{
			Filters: []filter.Filter{filter.NewSeenFilter(deps.History)},
		}, nil
	})

	factory.Register("filter.dsl", func(cfg map[string]interface{}) (pipeline.Node, error) {
		expr := conv.ConfigGet[string](cfg, "expr", "")
		f, err := filter.NewDSLFilter(expr)
		if err != nil {
			return nil, err
		}
		return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
	})

	factory.Register("rank.ripplenet", func(cfg map[string]interface{}) (pipeline.Node, error) {
		if deps.Model == nil {
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
				"config: rank.ripplenet requires a model")
		}
		return &rank.RippleNetNode{
			Model:         deps.Model,
			MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		}, nil
	})

	factory.Register("rerank.topn", func(cfg map[string]interface{}) (pipeline.Node, error) {
		n := conv.ConfigGetInt(cfg, "n", 0)
		if n < 1 {
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("config: rerank.topn n=%d, must be >= 1", n))
		}
		return &rerank.TopNNode{N: n}, nil
	})

	return factory
}
