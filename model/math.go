package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// sigmoid Sigmoid 激活函数。
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// softmaxInPlace 对切片做数值稳定的 softmax（减最大值）。
func softmaxInPlace(s []float64) {
	if len(s) == 0 {
		return
	}
	max := floats.Max(s)
	sum := 0.0
	for i, v := range s {
		e := math.Exp(v - max)
		s[i] = e
		sum += e
	}
	floats.Scale(1/sum, s)
}

// matVec 计算 out = M·v，M 为 dim×dim 的 row-major 拍平矩阵。
func matVec(m, v, out []float64, dim int) {
	for i := 0; i < dim; i++ {
		out[i] = floats.Dot(m[i*dim:(i+1)*dim], v)
	}
}

// matTVec 计算 out = Mᵀ·v。
func matTVec(m, v, out []float64, dim int) {
	for i := 0; i < dim; i++ {
		out[i] = 0
	}
	for i := 0; i < dim; i++ {
		floats.AddScaled(out, v[i], m[i*dim:(i+1)*dim])
	}
}

// outerAddScaled 计算 dst += s · a·bᵀ（dst 为 dim×dim 的 row-major 拍平矩阵）。
func outerAddScaled(dst []float64, s float64, a, b []float64, dim int) {
	for i := 0; i < dim; i++ {
		floats.AddScaled(dst[i*dim:(i+1)*dim], s*a[i], b)
	}
}
