package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/ripplekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是候选过滤 DSL 的解释器，使用 CEL (Common Expression Language) 实现。
// 表达式编译一次，之后可对任意 (item, rctx) 重复求值，线程安全。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7 / item.id != 42
//   - 逻辑：label.category == "A" && item.score > 0.8
//   - 存在性：label.ranker != null
//   - 包含：label.ranker.contains("ripple")
//
// 示例：
//   - `item.score < 0.2` → 剔除低分候选
//   - `label.ranker == "ripplenet" && item.score > 0.7` → 保留高分 RippleNet 结果
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译 DSL 表达式。空表达式合法，恒为 true。
func NewEval(expr string) (*Eval, error) {
	e := &Eval{expr: expr}
	if expr == "" {
		return e, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.prg = prg
	return e, nil
}

// Evaluate 对单个候选执行表达式，返回布尔结果。
// 访问不存在的 key 会报错，应使用 label.key != null 检查存在性。
func (e *Eval) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if e.expr == "" {
		return true, nil
	}
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	var itemMap map[string]interface{}
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
			// label.ranker 直接返回 value，兼容简写
			labelAccessor[k] = v.Value
		}
		itemMap = map[string]interface{}{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		}
	}

	rctxMap := make(map[string]interface{})
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		rctxMap["params"] = rctx.Params
	}

	return map[string]interface{}{
		"item":  itemMap,
		"label": labelAccessor,
		"rctx":  rctxMap,
	}
}
