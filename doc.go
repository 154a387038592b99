// Package ripplekit 是一个基于知识图谱偏好传播（RippleNet）的推荐工具包。
//
// 设计要点：
// - KG-first: 用户正反馈沿知识图谱多跳外扩成 Ripple Set，注意力加权聚合出偏好向量
// - 离线/在线分离: kg/ripple/model/train 负责离线训练，pipeline/filter/rank/rerank 负责在线编排
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
package ripplekit

import "github.com/rushteam/ripplekit/pipeline"

// 轻量 facade：便于用户直接 import "ripplekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
