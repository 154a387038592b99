// Package train 实现 RippleNet 的小批量训练循环。
//
// 核心思想:
//   - 每个 epoch 打乱训练样本, 按固定 batch 大小切分
//   - 逐样本累积解析梯度, 对 batch 取均值后叠加 L2 正则
//   - 每个 batch 同步执行一次优化器步进
//
// 工程特征:
//   - 不足一个 batch 的尾部样本在每个 epoch 被丢弃
//   - 每个 epoch 结束后汇报训练集 Loss / AUC / Accuracy
//   - epoch 之间检查 context, 支持外部提前取消
package train

import (
	"context"
	"log"
	"math/rand"

	"github.com/rushteam/ripplekit/core"
	"github.com/rushteam/ripplekit/model"
)

// Report 单个 epoch 的训练指标。
type Report struct {
	Epoch    int
	Loss     float64
	AUC      float64
	Accuracy float64
	Batches  int
}

// Trainer 驱动模型在交互样本上的训练。
type Trainer struct {
	Model     *model.RippleNet
	Optimizer model.Optimizer
	Epochs    int
	BatchSize int
	Seed      int64
	Verbose   bool
	// OnEpoch 每个 epoch 结束后回调, 可为 nil
	OnEpoch func(Report)
}

// New 根据模型配置构造训练器, 优化器由模型配置中的名字与学习率决定。
func New(m *model.RippleNet, epochs, batchSize int) (*Trainer, error) {
	if m == nil {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidConfig, "model is nil")
	}
	if epochs < 1 {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidConfig, "epochs must be >= 1")
	}
	if batchSize < 1 {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidConfig, "batch_size must be >= 1")
	}
	cfg := m.Config()
	opt, err := model.NewOptimizer(cfg.Optimizer, cfg.LearningRate)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		Model:     m,
		Optimizer: opt,
		Epochs:    epochs,
		BatchSize: batchSize,
		Seed:      cfg.Seed,
		Verbose:   cfg.Verbose,
	}, nil
}

// Fit 在给定样本与波纹集上训练模型, 返回每个 epoch 的指标。
//
// ripples 中缺失的用户按空波纹集处理, 其预测恒为 0.5。
// context 取消仅在 epoch 边界生效, 已完成的 epoch 指标一并返回。
func (t *Trainer) Fit(ctx context.Context, rows []core.Interaction, ripples map[int64]core.UserRipples) ([]Report, error) {
	if t.Model == nil || t.Optimizer == nil {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidConfig, "trainer not initialized")
	}
	if t.Epochs < 1 || t.BatchSize < 1 {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidConfig, "epochs and batch_size must be >= 1")
	}
	numBatches := len(rows) / t.BatchSize
	if numBatches == 0 {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidConfig, "batch_size larger than dataset")
	}

	rng := rand.New(rand.NewSource(t.Seed))
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}

	dim := t.Model.Config().Dim
	reports := make([]Report, 0, t.Epochs)
	scores := make([]float64, 0, numBatches*t.BatchSize)
	labels := make([]float64, 0, numBatches*t.BatchSize)

	for epoch := 0; epoch < t.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		scores = scores[:0]
		labels = labels[:0]
		epochLoss := 0.0

		for b := 0; b < numBatches; b++ {
			g := model.NewGradSet(dim)
			batchLoss := 0.0
			for k := 0; k < t.BatchSize; k++ {
				row := rows[order[b*t.BatchSize+k]]
				pred, loss, err := t.Model.Gradients(ripples[row.UserID], row.ItemID, row.Label, g)
				if err != nil {
					return reports, err
				}
				batchLoss += loss
				scores = append(scores, pred)
				labels = append(labels, row.Label)
			}
			g.Scale(1.0 / float64(t.BatchSize))
			penalty := t.Model.ApplyL2(g)
			t.Optimizer.Step(t.Model.Params(), g)
			epochLoss += batchLoss/float64(t.BatchSize) + penalty
		}

		r := Report{
			Epoch:    epoch,
			Loss:     epochLoss / float64(numBatches),
			AUC:      AUC(scores, labels),
			Accuracy: Accuracy(scores, labels),
			Batches:  numBatches,
		}
		reports = append(reports, r)
		if t.Verbose {
			log.Printf("train: epoch=%d loss=%.6f auc=%.4f acc=%.4f", r.Epoch, r.Loss, r.AUC, r.Accuracy)
		}
		if t.OnEpoch != nil {
			t.OnEpoch(r)
		}
	}
	return reports, nil
}
