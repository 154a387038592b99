package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/rushteam/ripplekit/core"
)

// Optimizer 是一阶优化器的抽象：消费一个批次的稀疏梯度，原子更新参数包。
// 优化器选择只影响参数更新规则，不影响前向语义。
type Optimizer interface {
	Name() string

	// Step 应用一次参数更新（每个 mini-batch 调用一次，批边界同步）
	Step(p *Params, g *GradSet)
}

// NewOptimizer 按名称创建优化器。未知名称是配置错误，fail-fast，绝不静默取默认。
func NewOptimizer(name string, lr float64) (Optimizer, error) {
	if lr <= 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: learning_rate=%v, must be > 0", lr))
	}
	switch strings.ToLower(name) {
	case "sgd":
		return &elementwiseOptimizer{
			name: "sgd", slots: 0,
			update: func(w, g []float64, _ [][]float64, _ int) {
				for i := range w {
					w[i] -= lr * g[i]
				}
			},
		}, nil
	case "adagrad":
		const eps = 1e-8
		return &elementwiseOptimizer{
			name: "adagrad", slots: 1,
			update: func(w, g []float64, s [][]float64, _ int) {
				acc := s[0]
				for i := range w {
					acc[i] += g[i] * g[i]
					w[i] -= lr * g[i] / (math.Sqrt(acc[i]) + eps)
				}
			},
		}, nil
	case "rmsprop":
		const rho, eps = 0.9, 1e-8
		return &elementwiseOptimizer{
			name: "rmsprop", slots: 1,
			update: func(w, g []float64, s [][]float64, _ int) {
				acc := s[0]
				for i := range w {
					acc[i] = rho*acc[i] + (1-rho)*g[i]*g[i]
					w[i] -= lr * g[i] / (math.Sqrt(acc[i]) + eps)
				}
			},
		}, nil
	case "adadelta":
		const rho, eps = 0.95, 1e-6
		return &elementwiseOptimizer{
			name: "adadelta", slots: 2,
			update: func(w, g []float64, s [][]float64, _ int) {
				accG, accDx := s[0], s[1]
				for i := range w {
					accG[i] = rho*accG[i] + (1-rho)*g[i]*g[i]
					dx := -math.Sqrt((accDx[i]+eps)/(accG[i]+eps)) * g[i]
					accDx[i] = rho*accDx[i] + (1-rho)*dx*dx
					w[i] += lr * dx
				}
			},
		}, nil
	case "adam":
		const beta1, beta2, eps = 0.9, 0.999, 1e-8
		return &elementwiseOptimizer{
			name: "adam", slots: 2,
			update: func(w, g []float64, s [][]float64, step int) {
				m1, m2 := s[0], s[1]
				c1 := 1 - math.Pow(beta1, float64(step))
				c2 := 1 - math.Pow(beta2, float64(step))
				for i := range w {
					m1[i] = beta1*m1[i] + (1-beta1)*g[i]
					m2[i] = beta2*m2[i] + (1-beta2)*g[i]*g[i]
					w[i] -= lr * (m1[i] / c1) / (math.Sqrt(m2[i]/c2) + eps)
				}
			},
		}, nil
	case "ftrl":
		// FTRL-Proximal，L1/L2 置零的线性化形式
		const beta = 1.0
		return &elementwiseOptimizer{
			name: "ftrl", slots: 2,
			update: func(w, g []float64, s [][]float64, _ int) {
				z, n := s[0], s[1]
				for i := range w {
					sigma := (math.Sqrt(n[i]+g[i]*g[i]) - math.Sqrt(n[i])) / lr
					z[i] += g[i] - sigma*w[i]
					n[i] += g[i] * g[i]
					w[i] = -z[i] * lr / (beta + math.Sqrt(n[i]))
				}
			},
		}, nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: unknown optimizer %q", name))
	}
}

type paramKind uint8

const (
	kindEntity paramKind = iota
	kindRelation
	kindTransform
	kindItemTransform
)

type stateKey struct {
	kind paramKind
	id   int64
}

// elementwiseOptimizer 按参数逐元素应用更新规则，状态槽随触达惰性分配。
// 稀疏梯度意味着只有本批触达的参数推进其优化器状态（lazy update，标准做法）。
type elementwiseOptimizer struct {
	name   string
	slots  int
	steps  int
	state  map[stateKey][][]float64
	update func(w, g []float64, slots [][]float64, step int)
}

func (o *elementwiseOptimizer) Name() string { return o.name }

func (o *elementwiseOptimizer) Step(p *Params, g *GradSet) {
	o.steps++
	for id, buf := range g.Entity {
		o.apply(stateKey{kindEntity, id}, p.Entity[id], buf)
	}
	for id, buf := range g.Relation {
		o.apply(stateKey{kindRelation, id}, p.Relation[id], buf)
	}
	for id, buf := range g.Transform {
		o.apply(stateKey{kindTransform, id}, p.Transform[id], buf)
	}
	if g.ItemTransform != nil {
		o.apply(stateKey{kindItemTransform, 0}, p.ItemTransform, g.ItemTransform)
	}
}

func (o *elementwiseOptimizer) apply(key stateKey, w, g []float64) {
	var slots [][]float64
	if o.slots > 0 {
		if o.state == nil {
			o.state = make(map[stateKey][][]float64)
		}
		slots = o.state[key]
		if slots == nil {
			slots = make([][]float64, o.slots)
			for i := range slots {
				slots[i] = make([]float64, len(w))
			}
			o.state[key] = slots
		}
	}
	o.update(w, g, slots, o.steps)
}
