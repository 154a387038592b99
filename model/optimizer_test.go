package model

import (
	"math"
	"testing"

	"github.com/rushteam/ripplekit/core"
)

func TestNewOptimizer_Unknown(t *testing.T) {
	if _, err := NewOptimizer("newton", 0.01); !core.IsInvalidConfig(err) {
		t.Errorf("NewOptimizer(newton) error = %v, want INVALID_CONFIG", err)
	}
	if _, err := NewOptimizer("sgd", 0); !core.IsInvalidConfig(err) {
		t.Errorf("NewOptimizer(lr=0) error = %v, want INVALID_CONFIG", err)
	}
}

// TestOptimizer_StepReducesLoss 验证对同一样本做一次梯度步后复合损失下降。
// ftrl 的首步会将参数拉向累积解，不保证单步下降，只验证其有限性。
func TestOptimizer_StepReducesLoss(t *testing.T) {
	ripples := testRipples()
	const itemID, label = 2, 1.0

	names := []string{"sgd", "adagrad", "rmsprop", "adadelta", "adam"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(UpdatePlus, true)
			cfg.Optimizer = name
			params, _ := NewParams(6, 2, cfg.Dim, cfg.Seed)
			m, err := New(cfg, params)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			opt, err := NewOptimizer(name, cfg.LearningRate)
			if err != nil {
				t.Fatalf("NewOptimizer() error = %v", err)
			}

			g := NewGradSet(cfg.Dim)
			_, before, err := m.Gradients(ripples, itemID, label, g)
			if err != nil {
				t.Fatalf("Gradients() error = %v", err)
			}
			before += m.ApplyL2(g)

			opt.Step(params, g)

			g2 := NewGradSet(cfg.Dim)
			_, after, err := m.Gradients(ripples, itemID, label, g2)
			if err != nil {
				t.Fatalf("Gradients() error = %v", err)
			}
			after += m.ApplyL2(g2)

			if after >= before {
				t.Errorf("%s: loss %v -> %v, want decrease", name, before, after)
			}
		})
	}
}

func TestOptimizer_FTRLFinite(t *testing.T) {
	cfg := testConfig(UpdatePlus, true)
	cfg.Optimizer = "ftrl"
	params, _ := NewParams(6, 2, cfg.Dim, cfg.Seed)
	m, _ := New(cfg, params)
	opt, err := NewOptimizer("ftrl", cfg.LearningRate)
	if err != nil {
		t.Fatalf("NewOptimizer(ftrl) error = %v", err)
	}

	for step := 0; step < 5; step++ {
		g := NewGradSet(cfg.Dim)
		if _, _, err := m.Gradients(testRipples(), 2, 1, g); err != nil {
			t.Fatalf("Gradients() error = %v", err)
		}
		opt.Step(params, g)
	}
	pred, err := m.Predict(testRipples(), 2)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		t.Errorf("pred after ftrl steps = %v, want finite", pred)
	}
}

// TestOptimizer_LazyState 验证状态槽只为触达的参数分配。
func TestOptimizer_LazyState(t *testing.T) {
	opt, _ := NewOptimizer("adam", 0.01)
	adam := opt.(*elementwiseOptimizer)

	params, _ := NewParams(10, 2, 4, 1)
	g := NewGradSet(4)
	g.entity(3)[0] = 0.5
	opt.Step(params, g)

	if len(adam.state) != 1 {
		t.Errorf("state entries = %d, want 1 (only touched params)", len(adam.state))
	}
	if _, ok := adam.state[stateKey{kindEntity, 3}]; !ok {
		t.Errorf("missing state for touched entity 3")
	}
}
