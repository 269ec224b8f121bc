package predictor

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Функции активации слоёв
const (
	activationReLU    = "relu"
	activationSigmoid = "sigmoid"
)

// TrainConfig - параметры обучения модели
type TrainConfig struct {
	HiddenSizes  []int
	Samples      int
	Epochs       int
	BatchSize    int
	LearningRate float64
	DataSeed     int64 // seed синтетического датасета
	InitSeed     int64 // seed начальных весов и перемешивания; 0 - случайный
}

// DefaultTrainConfig возвращает параметры обучения по умолчанию
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		HiddenSizes:  []int{16, 8},
		Samples:      1000,
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 0.001,
		DataSeed:     42,
	}
}

// Параметры Adam
const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7
)

type denseLayer struct {
	Weights    [][]float64 `json:"weights"` // [выход][вход]
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

// MLP - полносвязная сеть 3 → скрытые слои (ReLU) → 1 (sigmoid)
type MLP struct {
	layers []denseLayer
}

func newMLP(sizes []int, rng *rand.Rand) *MLP {
	m := &MLP{}
	for i := 0; i < len(sizes)-1; i++ {
		in, out := sizes[i], sizes[i+1]
		limit := math.Sqrt(6 / float64(in+out))
		layer := denseLayer{
			Weights:    make([][]float64, out),
			Biases:     make([]float64, out),
			Activation: activationReLU,
		}
		if i == len(sizes)-2 {
			layer.Activation = activationSigmoid
		}
		for j := range layer.Weights {
			layer.Weights[j] = make([]float64, in)
			for k := range layer.Weights[j] {
				layer.Weights[j][k] = (rng.Float64()*2 - 1) * limit
			}
		}
		m.layers = append(m.layers, layer)
	}
	return m
}

// Train обучает новую модель на синтетических данных
func Train(cfg TrainConfig) (*MLP, float64, error) {
	if cfg.Samples <= 0 || cfg.Epochs <= 0 || cfg.BatchSize <= 0 || cfg.LearningRate <= 0 {
		return nil, 0, fmt.Errorf("invalid train config: %+v", cfg)
	}
	initSeed := cfg.InitSeed
	if initSeed == 0 {
		initSeed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(initSeed))

	sizes := append([]int{3}, cfg.HiddenSizes...)
	sizes = append(sizes, 1)
	m := newMLP(sizes, rng)

	X, Y := syntheticDataset(cfg.Samples, cfg.DataSeed)
	loss, err := m.fit(X, Y, cfg, rng)
	if err != nil {
		return nil, 0, err
	}
	return m, loss, nil
}

// syntheticDataset генерирует нормализованные входы и целевую сложность
func syntheticDataset(n int, seed int64) ([][3]float64, []float64) {
	r := rand.New(rand.NewSource(seed))
	X := make([][3]float64, n)
	Y := make([]float64, n)
	for i := 0; i < n; i++ {
		accuracy := r.Float64()
		reactionTime := r.Float64() * maxReactionTimeSec
		attempts := math.Floor(r.Float64()*maxAttempts) + 1
		X[i] = normalize(accuracy, reactionTime, attempts)
		Y[i] = targetDifficulty(X[i][0], X[i][1], X[i][2])
	}
	return X, Y
}

// forward возвращает выходы всех слоёв; acts[0] - вход
func (m *MLP) forward(x []float64) [][]float64 {
	acts := make([][]float64, 0, len(m.layers)+1)
	acts = append(acts, x)
	for _, layer := range m.layers {
		in := acts[len(acts)-1]
		out := make([]float64, len(layer.Biases))
		for j := range out {
			sum := layer.Biases[j]
			for k, w := range layer.Weights[j] {
				sum += w * in[k]
			}
			out[j] = activate(layer.Activation, sum)
		}
		acts = append(acts, out)
	}
	return acts
}

func activate(kind string, z float64) float64 {
	if kind == activationSigmoid {
		return 1 / (1 + math.Exp(-z))
	}
	if z < 0 {
		return 0
	}
	return z
}

// derivative считает производную активации по её выходу
func derivative(kind string, a float64) float64 {
	if kind == activationSigmoid {
		return a * (1 - a)
	}
	if a > 0 {
		return 1
	}
	return 0
}

type gradients struct {
	w [][][]float64
	b [][]float64
}

func (m *MLP) zeroGradients() gradients {
	g := gradients{
		w: make([][][]float64, len(m.layers)),
		b: make([][]float64, len(m.layers)),
	}
	for l, layer := range m.layers {
		g.w[l] = make([][]float64, len(layer.Weights))
		for j := range layer.Weights {
			g.w[l][j] = make([]float64, len(layer.Weights[j]))
		}
		g.b[l] = make([]float64, len(layer.Biases))
	}
	return g
}

// fit обучает сеть мини-батчами с MSE и Adam. Возвращает MSE последней эпохи
func (m *MLP) fit(X [][3]float64, Y []float64, cfg TrainConfig, rng *rand.Rand) (float64, error) {
	n := len(X)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	mom := m.zeroGradients()
	vel := m.zeroGradients()
	step := 0
	var epochLoss float64

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		epochLoss = 0

		for start := 0; start < n; start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > n {
				end = n
			}
			batch := order[start:end]
			grad := m.zeroGradients()

			for _, i := range batch {
				acts := m.forward(X[i][:])
				out := acts[len(acts)-1][0]
				diff := out - Y[i]
				epochLoss += diff * diff

				delta := []float64{2 * diff / float64(len(batch))}
				for l := len(m.layers) - 1; l >= 0; l-- {
					layer := m.layers[l]
					a := acts[l+1]
					for j := range delta {
						delta[j] *= derivative(layer.Activation, a[j])
						grad.b[l][j] += delta[j]
						for k, in := range acts[l] {
							grad.w[l][j][k] += delta[j] * in
						}
					}
					if l == 0 {
						break
					}
					prev := make([]float64, len(acts[l]))
					for j := range delta {
						for k, w := range layer.Weights[j] {
							prev[k] += w * delta[j]
						}
					}
					delta = prev
				}
			}

			step++
			m.adamStep(grad, mom, vel, step, cfg.LearningRate)
		}

		epochLoss /= float64(n)
		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			return 0, errors.New("training diverged: non-finite loss")
		}
	}
	return epochLoss, nil
}

func (m *MLP) adamStep(grad, mom, vel gradients, step int, lr float64) {
	t := float64(step)
	lrT := lr * math.Sqrt(1-math.Pow(adamBeta2, t)) / (1 - math.Pow(adamBeta1, t))

	update := func(p *float64, g float64, mv, vv *float64) {
		*mv = adamBeta1*(*mv) + (1-adamBeta1)*g
		*vv = adamBeta2*(*vv) + (1-adamBeta2)*g*g
		*p -= lrT * (*mv) / (math.Sqrt(*vv) + adamEpsilon)
	}

	for l := range m.layers {
		for j := range m.layers[l].Weights {
			for k := range m.layers[l].Weights[j] {
				update(&m.layers[l].Weights[j][k], grad.w[l][j][k], &mom.w[l][j][k], &vel.w[l][j][k])
			}
			update(&m.layers[l].Biases[j], grad.b[l][j], &mom.b[l][j], &vel.b[l][j])
		}
	}
}

// Predict реализует Predictor
func (m *MLP) Predict(accuracy, reactionTime, attempts float64) float64 {
	x := normalize(accuracy, reactionTime, attempts)
	acts := m.forward(x[:])
	return clip(acts[len(acts)-1][0])
}

// Strategy реализует Predictor
func (m *MLP) Strategy() string {
	return StrategyLearned
}

// validate проверяет согласованность размеров слоёв (после загрузки с диска)
func (m *MLP) validate() error {
	if len(m.layers) == 0 {
		return errors.New("model has no layers")
	}
	in := 3
	for i, layer := range m.layers {
		if len(layer.Weights) == 0 || len(layer.Weights) != len(layer.Biases) {
			return fmt.Errorf("layer %d: weights/biases size mismatch", i)
		}
		for _, row := range layer.Weights {
			if len(row) != in {
				return fmt.Errorf("layer %d: expected %d inputs, got %d", i, in, len(row))
			}
		}
		if layer.Activation != activationReLU && layer.Activation != activationSigmoid {
			return fmt.Errorf("layer %d: unknown activation %q", i, layer.Activation)
		}
		in = len(layer.Weights)
	}
	if in != 1 {
		return fmt.Errorf("model output size must be 1, got %d", in)
	}
	return nil
}
