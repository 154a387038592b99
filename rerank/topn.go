// Package rerank 提供排序结果上的重排节点。
package rerank

import (
	"context"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/pipeline"
)

// TopNNode 是 Top-N 截断节点，在排序后截取前 N 个物品。
// 通常在排序（Rank）节点之后使用，用于限制返回结果数量。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.RippleNetNode{Model: m}, // 排序
//	        &rerank.TopNNode{N: 20},       // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量。N <= 0 或 N >= len(items) 时不截断。
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}

var _ pipeline.Node = (*TopNNode)(nil)
