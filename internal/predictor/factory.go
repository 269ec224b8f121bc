package predictor

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"
)

// Config - настройки выбора стратегии
type Config struct {
	Strategy  string // auto | learned | rule
	ModelPath string // файл модели; пустая строка - не загружать и не сохранять
	Train     TrainConfig
}

// New создает предсказатель согласно конфигурации.
// В режиме auto любая ошибка загрузки или обучения приводит к правилу (с информационным логом),
// в режиме learned ошибка возвращается вызывающему.
func New(cfg Config) (Predictor, error) {
	switch cfg.Strategy {
	case StrategyRule:
		log.Printf("[Predictor] Используется стратегия %s", StrategyRule)
		return NewRule(), nil
	case StrategyLearned, StrategyAuto, "":
	default:
		return nil, fmt.Errorf("unknown predictor strategy %q", cfg.Strategy)
	}

	p, err := loadOrTrain(cfg)
	if err != nil {
		if cfg.Strategy == StrategyLearned {
			return nil, err
		}
		log.Printf("[Predictor] INFO: Обучаемая модель недоступна (%v), используется стратегия %s", err, StrategyRule)
		return NewRule(), nil
	}
	return p, nil
}

func loadOrTrain(cfg Config) (Predictor, error) {
	if cfg.ModelPath != "" {
		p, err := Load(cfg.ModelPath)
		if err == nil {
			log.Printf("[Predictor] Модель загружена из %s (стратегия %s)", cfg.ModelPath, p.Strategy())
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[Predictor] WARNING: Не удалось загрузить модель %s: %v. Обучаю заново", cfg.ModelPath, err)
		}
	}

	started := time.Now()
	m, loss, err := Train(cfg.Train)
	if err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	log.Printf("[Predictor] Модель обучена за %v, MSE=%.5f", time.Since(started).Round(time.Millisecond), loss)

	if cfg.ModelPath != "" {
		if err := Save(m, cfg.ModelPath); err != nil {
			log.Printf("[Predictor] WARNING: Не удалось сохранить модель: %v", err)
		}
	}
	return m, nil
}
