package model

import "gonum.org/v1/gonum/floats"

// GradSet 是一个 mini-batch 的稀疏梯度：只为被触达的参数分配梯度缓冲。
// 训练循环按行累积，批末统一缩放并交给优化器原子应用（批边界一次更新）。
type GradSet struct {
	dim int

	// Entity / Relation / Transform 按参数 ID 稀疏存储
	Entity    map[int64][]float64
	Relation  map[int64][]float64
	Transform map[int64][]float64

	// ItemTransform 共享物品变换的梯度；未触达时为 nil
	ItemTransform []float64
}

// NewGradSet 创建空梯度集。
func NewGradSet(dim int) *GradSet {
	return &GradSet{
		dim:       dim,
		Entity:    make(map[int64][]float64),
		Relation:  make(map[int64][]float64),
		Transform: make(map[int64][]float64),
	}
}

func (g *GradSet) entity(id int64) []float64 {
	buf, ok := g.Entity[id]
	if !ok {
		buf = make([]float64, g.dim)
		g.Entity[id] = buf
	}
	return buf
}

func (g *GradSet) relation(id int64) []float64 {
	buf, ok := g.Relation[id]
	if !ok {
		buf = make([]float64, g.dim)
		g.Relation[id] = buf
	}
	return buf
}

func (g *GradSet) transform(id int64) []float64 {
	buf, ok := g.Transform[id]
	if !ok {
		buf = make([]float64, g.dim*g.dim)
		g.Transform[id] = buf
	}
	return buf
}

func (g *GradSet) itemTransform() []float64 {
	if g.ItemTransform == nil {
		g.ItemTransform = make([]float64, g.dim*g.dim)
	}
	return g.ItemTransform
}

// Scale 将全部梯度乘以 s（批末按 1/batch_size 归一）。
func (g *GradSet) Scale(s float64) {
	for _, buf := range g.Entity {
		floats.Scale(s, buf)
	}
	for _, buf := range g.Relation {
		floats.Scale(s, buf)
	}
	for _, buf := range g.Transform {
		floats.Scale(s, buf)
	}
	if g.ItemTransform != nil {
		floats.Scale(s, g.ItemTransform)
	}
}
