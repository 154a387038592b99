// Package feast 把 Feast Feature Store 作为用户正反馈历史的数据源。
//
// Feast 是开源的 Feature Store，在线存储保存每个用户的交互物品 ID 列表
// （Int64List 特征），本包通过官方 Go SDK 的 gRPC 客户端按需拉取，
// 作为 core.HistoryStore 的一种生产实现。
package feast

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/ripplekit/core"
)

// HistoryProvider 从 Feast 在线特征库读取用户正反馈历史。
//
// 约定：entity 为用户 ID（Int64），feature 为物品 ID 列表（Int64List），
// 例如 entity "user_id"、feature "user_feedback:item_history"。
type HistoryProvider struct {
	client  *feastsdk.GrpcClient
	project string
	entity  string
	feature string
}

// NewHistoryProvider 连接 Feast Feature Server。
// port 为 0 时使用默认 gRPC 端口 6565。
func NewHistoryProvider(host string, port int, project, entity, feature string) (*HistoryProvider, error) {
	if project == "" || entity == "" || feature == "" {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidConfig,
			"feast: project, entity and feature are required")
	}
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s:%d: %w", host, port, err)
	}
	return &HistoryProvider{
		client:  client,
		project: project,
		entity:  entity,
		feature: feature,
	}, nil
}

// GetUserHistory 拉取用户的交互物品 ID 列表。
// 用户不存在或特征值为空时返回空列表，不报错。
func (p *HistoryProvider) GetUserHistory(ctx context.Context, userID int64) ([]int64, error) {
	req := &feastsdk.OnlineFeaturesRequest{
		Features: []string{p.feature},
		Entities: []feastsdk.Row{
			{p.entity: feastsdk.Int64Val(userID)},
		},
		Project: p.project,
	}
	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != 1 {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeDataIntegrity,
			fmt.Sprintf("feast: expected 1 row, got %d", len(rows)))
	}
	val, ok := rows[0][p.feature]
	if !ok || val == nil {
		return []int64{}, nil
	}
	list := val.GetInt64ListVal()
	if list == nil {
		return []int64{}, nil
	}
	src := list.GetVal()
	out := make([]int64, len(src))
	copy(out, src)
	return out, nil
}

func (p *HistoryProvider) Close() error {
	// 官方 SDK 未暴露显式 Close，连接由 gRPC 库管理
	p.client = nil
	return nil
}

var _ core.HistoryStore = (*HistoryProvider)(nil)
