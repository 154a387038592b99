// Package model 实现基于 Ripple Set 的偏好传播模型：
// 以用户多跳采样三元组为记忆，对候选物品做注意力加权聚合并输出点击概率。
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/ripplekit/core"
)

// ItemUpdateMode 是每跳物品表征的更新策略（构造期选定的封闭枚举）。
type ItemUpdateMode string

const (
	// UpdateReplace 物品表征直接替换为本跳响应向量
	UpdateReplace ItemUpdateMode = "replace"
	// UpdatePlus 物品表征累加本跳响应向量
	UpdatePlus ItemUpdateMode = "plus"
	// UpdatePlusTransform 累加后过共享线性变换 + tanh
	UpdatePlusTransform ItemUpdateMode = "plus_transform"
	// UpdateReplaceTransform 响应向量过共享线性变换 + tanh 后替换
	UpdateReplaceTransform ItemUpdateMode = "replace_transform"
)

// Config 是模型超参数。未识别的取值在 Validate 阶段 fail-fast，绝不静默取默认。
type Config struct {
	// Dim 嵌入维度
	Dim int `yaml:"dim"`

	// NumHops 传播跳数 H
	NumHops int `yaml:"n_hop"`

	// MemorySize 每跳 Ripple Set 大小 n_memory
	MemorySize int `yaml:"n_memory"`

	// KGEWeight 知识图谱嵌入一致性项权重
	KGEWeight float64 `yaml:"kge_weight"`

	// L2Weight L2 正则权重
	L2Weight float64 `yaml:"l2_weight"`

	// LearningRate 学习率
	LearningRate float64 `yaml:"learning_rate"`

	// ItemUpdateMode 每跳物品表征更新策略
	ItemUpdateMode ItemUpdateMode `yaml:"item_update_mode"`

	// UseAllHops 为 true 时偏好向量为全部跳响应之和，否则只取最后一跳
	UseAllHops bool `yaml:"using_all_hops"`

	// Optimizer 优化器名称：sgd / adagrad / adadelta / rmsprop / adam / ftrl
	Optimizer string `yaml:"optimizer"`

	// Seed 随机种子（参数初始化）
	Seed int64 `yaml:"seed"`

	// Verbose 训练时是否输出每个 epoch 的指标日志
	Verbose bool `yaml:"verbose"`
}

// Validate 校验超参数，非法配置返回 INVALID_CONFIG。
func (c *Config) Validate() error {
	if c.Dim < 1 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: dim=%d, must be >= 1", c.Dim))
	}
	if c.NumHops < 1 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: n_hop=%d, must be >= 1", c.NumHops))
	}
	if c.MemorySize < 1 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: n_memory=%d, must be >= 1", c.MemorySize))
	}
	if c.LearningRate <= 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: learning_rate=%v, must be > 0", c.LearningRate))
	}
	switch c.ItemUpdateMode {
	case UpdateReplace, UpdatePlus, UpdatePlusTransform, UpdateReplaceTransform:
	default:
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model: unknown item_update_mode %q", c.ItemUpdateMode))
	}
	if _, err := NewOptimizer(c.Optimizer, c.LearningRate); err != nil {
		return err
	}
	return nil
}

// RippleNet 是偏好传播模型。
//
// 核心思想：
//   - 每跳对 Ripple Set 里的三元组计算注意力：候选物品经关系变换投影后与 head 内积
//   - softmax 归一化得到权重，tail 嵌入加权求和为本跳响应向量
//   - 物品表征按 ItemUpdateMode 跨跳串行更新（本跳注意力依赖已更新的表征）
//   - 偏好向量与原始候选物品嵌入的内积过 sigmoid 即点击概率
//
// 工程特征：
//   - 前向/反向均为手推解析梯度，前向缓存逐跳中间量
//   - 全空 Ripple Set 的退化用户：偏好向量为零向量，输出常数概率，不报错
type RippleNet struct {
	cfg    Config
	params *Params
}

// New 创建模型，校验配置与参数形状。
func New(cfg Config, params *Params) (*RippleNet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			"model: params is required")
	}
	if params.Dim != cfg.Dim {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("model: config dim=%d but params dim=%d", cfg.Dim, params.Dim))
	}
	return &RippleNet{cfg: cfg, params: params}, nil
}

// Params 返回模型的参数包（训练循环据此做优化器更新）。
func (m *RippleNet) Params() *Params { return m.params }

// Config 返回模型配置。
func (m *RippleNet) Config() Config { return m.cfg }

// hopState 缓存单跳前向的中间量，反向传播复用。
type hopState struct {
	set     core.RippleSet
	input   []float64   // v_{k-1}：本跳注意力所用的物品表征
	proj    [][]float64 // R_r · v_{k-1}，逐三元组
	alphas  []float64   // softmax 归一化后的注意力权重
	o       []float64   // 响应向量：tail 的注意力加权和
	x       []float64   // 变换策略的输入（o 或 v_{k-1}+o）；非变换策略为 nil
	updated []float64   // v_k
}

type forwardState struct {
	item0 []float64 // 原始候选物品嵌入
	hops  []hopState
	pref  []float64 // 偏好向量 u
	pred  float64
}

func (m *RippleNet) checkInputs(ripples core.UserRipples, itemID int64) error {
	if itemID < 0 || itemID >= m.params.NumEntity {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeDataIntegrity,
			fmt.Sprintf("model: item id %d out of entity range [0,%d)", itemID, m.params.NumEntity))
	}
	if ripples == nil {
		return nil // 退化用户：按全空处理
	}
	if len(ripples) != m.cfg.NumHops {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("model: got %d ripple sets, config n_hop=%d", len(ripples), m.cfg.NumHops))
	}
	for k, rs := range ripples {
		if len(rs) != 0 && len(rs) != m.cfg.MemorySize {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("model: hop-%d ripple set len=%d, want 0 or n_memory=%d", k+1, len(rs), m.cfg.MemorySize))
		}
		for _, tr := range rs {
			if tr.Head < 0 || tr.Head >= m.params.NumEntity ||
				tr.Tail < 0 || tr.Tail >= m.params.NumEntity {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeDataIntegrity,
					fmt.Sprintf("model: hop-%d triple %v entity id out of range", k+1, tr))
			}
			if tr.Relation < 0 || tr.Relation >= m.params.NumRelation {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeDataIntegrity,
					fmt.Sprintf("model: hop-%d triple %v relation id out of range", k+1, tr))
			}
		}
	}
	return nil
}

// Predict 计算单个 (用户 Ripple Set, 候选物品) 的点击概率。
// 全空 Ripple Set 时偏好向量退化为零向量，输出有限的常数概率。
func (m *RippleNet) Predict(ripples core.UserRipples, itemID int64) (float64, error) {
	if err := m.checkInputs(ripples, itemID); err != nil {
		return 0, err
	}
	fs := m.forward(ripples, itemID)
	return fs.pred, nil
}

// KGEScore 返回单个三元组的合理性评分 sigmoid(hᵀ·R·t)，仅用于训练辅助项与诊断。
func (m *RippleNet) KGEScore(tr core.Triple) float64 {
	dim := m.cfg.Dim
	h := m.params.Entity[tr.Head]
	t := m.params.Entity[tr.Tail]
	r := m.params.Transform[tr.Relation]
	rt := make([]float64, dim)
	matVec(r, t, rt, dim)
	return sigmoid(floats.Dot(h, rt))
}

func (m *RippleNet) forward(ripples core.UserRipples, itemID int64) *forwardState {
	dim := m.cfg.Dim
	item0 := m.params.Entity[itemID]

	fs := &forwardState{
		item0: item0,
		hops:  make([]hopState, m.cfg.NumHops),
		pref:  make([]float64, dim),
	}

	v := make([]float64, dim)
	copy(v, item0)

	for k := 0; k < m.cfg.NumHops; k++ {
		st := &fs.hops[k]
		st.input = v
		if ripples != nil {
			st.set = ripples[k]
		}
		st.o = make([]float64, dim)

		if len(st.set) == 0 {
			// 空跳：响应向量为零，物品表征不变
			st.updated = v
			continue
		}

		// 注意力：score_i = (R_i · v) · h_i
		st.proj = make([][]float64, len(st.set))
		st.alphas = make([]float64, len(st.set))
		for i, tr := range st.set {
			p := make([]float64, dim)
			matVec(m.params.Transform[tr.Relation], v, p, dim)
			st.proj[i] = p
			st.alphas[i] = floats.Dot(p, m.params.Entity[tr.Head])
		}
		softmaxInPlace(st.alphas)

		// 响应向量：tail 的注意力加权和
		for i, tr := range st.set {
			floats.AddScaled(st.o, st.alphas[i], m.params.Entity[tr.Tail])
		}

		st.updated = m.updateItem(st, v)
		v = st.updated
	}

	// 偏好向量：全部跳响应之和，或仅最后一跳
	if m.cfg.UseAllHops {
		for k := range fs.hops {
			floats.Add(fs.pref, fs.hops[k].o)
		}
	} else {
		copy(fs.pref, fs.hops[m.cfg.NumHops-1].o)
	}

	fs.pred = sigmoid(floats.Dot(fs.pref, item0))
	return fs
}

// updateItem 按配置的策略更新物品表征，缓存变换输入供反向传播使用。
func (m *RippleNet) updateItem(st *hopState, v []float64) []float64 {
	dim := m.cfg.Dim
	switch m.cfg.ItemUpdateMode {
	case UpdateReplace:
		out := make([]float64, dim)
		copy(out, st.o)
		return out
	case UpdatePlus:
		out := make([]float64, dim)
		floats.AddTo(out, v, st.o)
		return out
	case UpdateReplaceTransform:
		st.x = make([]float64, dim)
		copy(st.x, st.o)
	case UpdatePlusTransform:
		st.x = make([]float64, dim)
		floats.AddTo(st.x, v, st.o)
	}
	out := make([]float64, dim)
	matVec(m.params.ItemTransform, st.x, out, dim)
	for i := range out {
		out[i] = math.Tanh(out[i])
	}
	return out
}

// Gradients 对单条样本做前向+反向传播，把梯度累积进 g。
// 返回预测概率与该样本的损失（分类项 + KGE 项；L2 项由 ApplyL2 整批结算）。
func (m *RippleNet) Gradients(ripples core.UserRipples, itemID int64, label float64, g *GradSet) (pred, loss float64, err error) {
	if err := m.checkInputs(ripples, itemID); err != nil {
		return 0, 0, err
	}
	fs := m.forward(ripples, itemID)
	pred = fs.pred

	const eps = 1e-10
	clamped := math.Min(math.Max(pred, eps), 1-eps)
	loss = -(label*math.Log(clamped) + (1-label)*math.Log(1-clamped))

	m.backward(fs, itemID, label, g)
	loss += m.kgeTerm(fs, g)
	return pred, loss, nil
}

// backward 反向传播分类项梯度（σ(z) 与 BCE 复合后 dL/dz = pred − label）。
func (m *RippleNet) backward(fs *forwardState, itemID int64, label float64, g *GradSet) {
	dim := m.cfg.Dim
	dz := fs.pred - label

	// z = u · v0
	du := make([]float64, dim)
	floats.AddScaled(du, dz, fs.item0)
	dItem0 := make([]float64, dim)
	floats.AddScaled(dItem0, dz, fs.pref)

	// dvNext 是下游对 v_k 的梯度（score 只用 v0，故从零开始）
	dvNext := make([]float64, dim)

	for k := m.cfg.NumHops - 1; k >= 0; k-- {
		st := &fs.hops[k]

		if len(st.set) == 0 {
			// 空跳 v_k = v_{k-1}：梯度原样穿透
			continue
		}

		// 本跳响应向量的总梯度：偏好向量路径 + 更新策略路径
		do := make([]float64, dim)
		if m.cfg.UseAllHops || k == m.cfg.NumHops-1 {
			floats.Add(do, du)
		}

		dvPrev := make([]float64, dim)
		switch m.cfg.ItemUpdateMode {
		case UpdateReplace:
			floats.Add(do, dvNext)
		case UpdatePlus:
			floats.Add(do, dvNext)
			floats.Add(dvPrev, dvNext)
		case UpdateReplaceTransform, UpdatePlusTransform:
			// v_k = tanh(W·x)：dpre = dv ⊙ (1 − v_k²)
			dpre := make([]float64, dim)
			for i := range dpre {
				dpre[i] = dvNext[i] * (1 - st.updated[i]*st.updated[i])
			}
			outerAddScaled(g.itemTransform(), 1, dpre, st.x, dim)
			common := make([]float64, dim)
			matTVec(m.params.ItemTransform, dpre, common, dim)
			floats.Add(do, common)
			if m.cfg.ItemUpdateMode == UpdatePlusTransform {
				floats.Add(dvPrev, common)
			}
		}

		// 注意力反向：o = Σ α_i t_i，α = softmax(s)，s_i = (R_i v) · h_i
		dalphas := make([]float64, len(st.set))
		for i, tr := range st.set {
			floats.AddScaled(g.entity(tr.Tail), st.alphas[i], do)
			dalphas[i] = floats.Dot(do, m.params.Entity[tr.Tail])
		}
		weighted := floats.Dot(st.alphas, dalphas)
		for i, tr := range st.set {
			ds := st.alphas[i] * (dalphas[i] - weighted)
			h := m.params.Entity[tr.Head]
			floats.AddScaled(g.entity(tr.Head), ds, st.proj[i])
			outerAddScaled(g.transform(tr.Relation), ds, h, st.input, dim)
			rth := make([]float64, dim)
			matTVec(m.params.Transform[tr.Relation], h, rth, dim)
			floats.AddScaled(dvPrev, ds, rth)
		}

		dvNext = dvPrev
	}

	// v_0 即候选物品嵌入：汇总直接路径与逐跳回传路径
	floats.Add(dItem0, dvNext)
	floats.Add(g.entity(itemID), dItem0)
}

// kgeTerm 计算并反传 KGE 一致性项：
// 奖励采样三元组的合理性评分 sigmoid(hᵀ·R·t)，损失取其均值的相反数乘权重。
func (m *RippleNet) kgeTerm(fs *forwardState, g *GradSet) float64 {
	if m.cfg.KGEWeight <= 0 {
		return 0
	}
	total := 0
	for k := range fs.hops {
		total += len(fs.hops[k].set)
	}
	if total == 0 {
		return 0
	}

	dim := m.cfg.Dim
	loss := 0.0
	rt := make([]float64, dim)
	rth := make([]float64, dim)
	for k := range fs.hops {
		for _, tr := range fs.hops[k].set {
			h := m.params.Entity[tr.Head]
			t := m.params.Entity[tr.Tail]
			r := m.params.Transform[tr.Relation]

			matVec(r, t, rt, dim)
			s := sigmoid(floats.Dot(h, rt))
			loss += -m.cfg.KGEWeight * s / float64(total)

			coef := -m.cfg.KGEWeight * s * (1 - s) / float64(total)
			floats.AddScaled(g.entity(tr.Head), coef, rt)
			matTVec(r, h, rth, dim)
			floats.AddScaled(g.entity(tr.Tail), coef, rth)
			outerAddScaled(g.transform(tr.Relation), coef, h, t, dim)
		}
	}
	return loss
}

// ApplyL2 对本批触达的参数追加 L2 正则梯度，返回正则损失项。
// 在批内梯度按 1/batch_size 归一之后调用。
func (m *RippleNet) ApplyL2(g *GradSet) float64 {
	if m.cfg.L2Weight <= 0 {
		return 0
	}
	w := m.cfg.L2Weight
	penalty := 0.0
	for id, buf := range g.Entity {
		p := m.params.Entity[id]
		penalty += w * floats.Dot(p, p)
		floats.AddScaled(buf, 2*w, p)
	}
	for id, buf := range g.Relation {
		p := m.params.Relation[id]
		penalty += w * floats.Dot(p, p)
		floats.AddScaled(buf, 2*w, p)
	}
	for id, buf := range g.Transform {
		p := m.params.Transform[id]
		penalty += w * floats.Dot(p, p)
		floats.AddScaled(buf, 2*w, p)
	}
	if g.ItemTransform != nil {
		p := m.params.ItemTransform
		penalty += w * floats.Dot(p, p)
		floats.AddScaled(g.ItemTransform, 2*w, p)
	}
	return penalty
}
