package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/rushteam/ripplekit/core"
)

// Params 是模型的全部可学习参数（Embedding Store）。
//
// 设计要点：
//   - 显式参数包，按引用传入训练循环与传播模型，不做隐藏全局状态
//   - 只被优化器的 Step 修改；推理阶段只读
//   - 变换矩阵按 row-major 拍平为一维切片，便于逐元素优化器状态管理
type Params struct {
	NumEntity   int64 `json:"n_entity"`
	NumRelation int64 `json:"n_relation"`
	Dim         int   `json:"dim"`

	// Entity 实体嵌入矩阵：n_entity × dim
	Entity [][]float64 `json:"entity"`

	// Relation 关系嵌入矩阵：n_relation × dim。
	// 当前传播与损失只消费 Transform，此矩阵随初始化持久化但不被训练更新。
	Relation [][]float64 `json:"relation"`

	// Transform 每个关系的变换矩阵：n_relation 个 dim×dim（row-major 拍平）
	Transform [][]float64 `json:"transform"`

	// ItemTransform 是 plus_transform / replace_transform 更新策略共享的
	// 物品表征线性变换：dim×dim（row-major 拍平）
	ItemTransform []float64 `json:"item_transform"`
}

// NewParams 创建并初始化参数包。
// 初始化为 [-1/√dim, 1/√dim] 上的均匀分布，给定 seed 时逐位可复现。
func NewParams(numEntity, numRelation int64, dim int, seed int64) (*Params, error) {
	if numEntity < 1 || numRelation < 1 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: numEntity=%d numRelation=%d, both must be >= 1", numEntity, numRelation))
	}
	if dim < 1 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: dim=%d, must be >= 1", dim))
	}

	rng := rand.New(rand.NewSource(seed))
	bound := 1.0 / math.Sqrt(float64(dim))
	uniform := func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = (rng.Float64()*2 - 1) * bound
		}
		return v
	}

	p := &Params{
		NumEntity:   numEntity,
		NumRelation: numRelation,
		Dim:         dim,
		Entity:      make([][]float64, numEntity),
		Relation:    make([][]float64, numRelation),
		Transform:   make([][]float64, numRelation),
	}
	for i := range p.Entity {
		p.Entity[i] = uniform(dim)
	}
	for i := range p.Relation {
		p.Relation[i] = uniform(dim)
		p.Transform[i] = uniform(dim * dim)
	}
	p.ItemTransform = uniform(dim * dim)
	return p, nil
}

// EntityEmbedding 返回实体嵌入向量（内部共享数据，调用方不得修改）。
func (p *Params) EntityEmbedding(id int64) []float64 { return p.Entity[id] }

// RelationEmbedding 返回关系嵌入向量。
// 注意：现有前向/损失路径不读取它，向量保持初始化值，不携带训练信号。
func (p *Params) RelationEmbedding(id int64) []float64 { return p.Relation[id] }

// RelationTransform 返回关系变换矩阵（dim×dim，row-major 拍平）。
func (p *Params) RelationTransform(id int64) []float64 { return p.Transform[id] }

// Save 将参数包以 JSON 格式保存到文件（显式快照，训练循环不做自动 checkpoint）。
func (p *Params) Save(path string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadParams 从 JSON 文件加载参数包。
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeParams(data)
}

// SaveSnapshot 把参数包写入 Store（模型参数快照缓存：
// 训练侧落快照，在线侧经 LoadSnapshot 拉起，存储后端可为内存或 Redis）。
func (p *Params) SaveSnapshot(ctx context.Context, s core.Store, key string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

// LoadSnapshot 从 Store 读取参数包快照。
// key 不存在时返回 NOT_FOUND（core.IsStoreNotFound 可判定）。
func LoadSnapshot(ctx context.Context, s core.Store, key string) (*Params, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeParams(data)
}

func decodeParams(data []byte) (*Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if int64(len(p.Entity)) != p.NumEntity || int64(len(p.Relation)) != p.NumRelation {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("model: loaded params shape mismatch: entity=%d/%d relation=%d/%d",
				len(p.Entity), p.NumEntity, len(p.Relation), p.NumRelation))
	}
	return &p, nil
}
