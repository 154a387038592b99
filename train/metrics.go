package train

import (
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUC 计算 ROC 曲线下面积。
// 全正或全负的退化批次返回 0.5（AUC 无定义时的中性值）。
func AUC(scores, labels []float64) float64 {
	pos, neg := 0, 0
	for _, l := range labels {
		if l > 0.5 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	// stat.ROC 要求样本按分数升序排列
	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(labels))
	for i, l := range labels {
		classes[i] = l > 0.5
	}
	stat.SortWeightedLabeled(y, classes, nil)

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Accuracy 以 0.5 为阈值计算准确率。
func Accuracy(scores, labels []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	correct := 0
	for i, s := range scores {
		predicted := 0.0
		if s >= 0.5 {
			predicted = 1.0
		}
		if (predicted > 0.5) == (labels[i] > 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(scores))
}
