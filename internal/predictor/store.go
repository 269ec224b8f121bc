package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// savedModel - формат файла модели
type savedModel struct {
	Strategy string       `json:"strategy"`
	Layers   []denseLayer `json:"layers,omitempty"`
	Rule     *Rule        `json:"rule,omitempty"`
}

// Save сохраняет параметры предсказателя в JSON-файл
func Save(p Predictor, path string) error {
	var model savedModel
	switch v := p.(type) {
	case *MLP:
		model = savedModel{Strategy: StrategyLearned, Layers: v.layers}
	case *Rule:
		model = savedModel{Strategy: StrategyRule, Rule: v}
	default:
		return fmt.Errorf("predictor %q cannot be saved", p.Strategy())
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model %s: %w", path, err)
	}
	return nil
}

// Load читает предсказатель, сохранённый Save
func Load(path string) (Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model savedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}

	switch model.Strategy {
	case StrategyLearned:
		m := &MLP{layers: model.Layers}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("invalid model %s: %w", path, err)
		}
		return m, nil
	case StrategyRule:
		if model.Rule == nil {
			return NewRule(), nil
		}
		return model.Rule, nil
	default:
		return nil, fmt.Errorf("unknown model strategy %q in %s", model.Strategy, path)
	}
}
