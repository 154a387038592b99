package filter

import (
	"context"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/pkg/dsl"
)

// DSLFilter 是表达式过滤器：CEL 表达式命中（求值为 true）的物品被过滤掉。
//
// 使用场景：
//   - 业务规则下沉到配置：`item.score < 0.1`
//   - 按标签剔除：`label.filtered != null`
type DSLFilter struct {
	expr string
	eval *dsl.Eval
}

// NewDSLFilter 编译表达式，非法表达式在构造期报错。
func NewDSLFilter(expr string) (*DSLFilter, error) {
	if expr == "" {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "filter: empty dsl expression")
	}
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "filter: "+err.Error())
	}
	return &DSLFilter{expr: expr, eval: eval}, nil
}

func (f *DSLFilter) Name() string {
	return "filter.dsl"
}

func (f *DSLFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	return f.eval.Evaluate(item, rctx)
}

var _ Filter = (*DSLFilter)(nil)
