package core

// Triple 是知识图谱中的一条有向带类型边 (head, relation, tail)。
// 实体 ID 取值范围 [0, n_entity)，关系 ID 取值范围 [0, n_relation)。
// 加载后不可变；上游已完成 ID 归一化与去重。
type Triple struct {
	Head     int64
	Relation int64
	Tail     int64
}

// Interaction 是一条 (用户, 物品, 标签) 交互记录。
// Label 取值 0/1（评分二值化由上游完成），训练与批量预测共用此结构。
type Interaction struct {
	UserID int64
	ItemID int64
	Label  float64
}

// Pair 是一条待排序的 (用户, 物品) 候选对，用于 TopK 推荐。
type Pair struct {
	UserID int64
	ItemID int64
}

// History 是用户正反馈历史：user -> 训练集中标签为正的物品 ID 列表。
// 它是 Ripple Set 种子 frontier 的唯一来源，也驱动 remove_seen 过滤。
type History map[int64][]int64

// Seen 返回某用户的已见物品集合（用于 remove_seen）。
// 用户不存在时返回空集合。
func (h History) Seen(userID int64) map[int64]bool {
	items := h[userID]
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		seen[it] = true
	}
	return seen
}

// RippleSet 是某个用户在某一跳（hop）上采样出的三元组序列。
// 不变式：长度要么恰好等于 n_memory（池不足时有放回采样补齐），
// 要么为 0（退化用户，见 ripple.Builder 的空集传递规则）。
// 构建后不可变，训练各 epoch 与推理复用同一份。
type RippleSet []Triple

// UserRipples 是一个用户全部 H 跳的 Ripple Set，下标 k 对应第 k+1 跳。
type UserRipples []RippleSet

// Empty 判断用户是否所有跳都为空（空历史/孤立节点的退化情形）。
func (ur UserRipples) Empty() bool {
	for _, rs := range ur {
		if len(rs) > 0 {
			return false
		}
	}
	return true
}
