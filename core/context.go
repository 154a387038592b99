package core

import "github.com/rushteam/ripplekit/pkg/utils"

// RecommendContext 承载单个用户的推荐请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID int64

	// Ripples 是该用户预先构建好的 Ripple Set（离线构建、在线复用）。
	// 为 nil 时模型按退化用户处理（偏好向量为零向量）。
	Ripples UserRipples

	// Params 请求级上下文参数（场景、实验分组、实时特征等）
	Params map[string]any

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
