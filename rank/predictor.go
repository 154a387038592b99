package rank

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/model"
)

// Prediction 单个 (user, item) 对的打分结果。
type Prediction struct {
	UserID int64
	ItemID int64
	// Score 点击概率，取值 (0, 1)
	Score float64
	// Label 按 0.5 阈值二值化后的预测标签
	Label float64
}

// Predictor 对 (user, item) 批次做只读并行打分。
type Predictor struct {
	Model *model.RippleNet

	// MaxConcurrent 并行打分上限，<=0 时使用默认值 8
	MaxConcurrent int
}

func NewPredictor(m *model.RippleNet) (*Predictor, error) {
	if m == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: model is nil")
	}
	return &Predictor{Model: m}, nil
}

// PredictBatch 对一批 (user, item) 打分，结果顺序与输入一致。
// 打分不修改模型参数，可与其他只读操作并发执行。
func (p *Predictor) PredictBatch(
	ctx context.Context,
	rows []core.Pair,
	ripples map[int64]core.UserRipples,
) ([]Prediction, error) {
	if p.Model == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidConfig, "rank: model is nil")
	}
	out := make([]Prediction, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	limit := p.MaxConcurrent
	if limit <= 0 {
		limit = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := p.Model.Predict(ripples[row.UserID], row.ItemID)
			if err != nil {
				return err
			}
			label := 0.0
			if score >= 0.5 {
				label = 1.0
			}
			out[i] = Prediction{
				UserID: row.UserID,
				ItemID: row.ItemID,
				Score:  score,
				Label:  label,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
