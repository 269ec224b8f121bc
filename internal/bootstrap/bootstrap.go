// Package bootstrap собирает зависимости, общие для HTTP-сервера и терминальной игры.
package bootstrap

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/adaptive-trivia/internal/config"
	"github.com/yourusername/adaptive-trivia/internal/metrics"
	"github.com/yourusername/adaptive-trivia/internal/predictor"
	pgRepo "github.com/yourusername/adaptive-trivia/internal/repository/postgres"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
	"github.com/yourusername/adaptive-trivia/pkg/database"
)

// OpenDatabase подключает БД согласно database.driver. Для driver=none возвращает nil без ошибки
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := database.NewPostgresDB(cfg.PostgresConnectionString())
		if err != nil {
			return nil, err
		}
		if err := database.MigrateDB(db, cfg.MigrationsPath); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return db, nil
	case "sqlite":
		return database.NewSQLiteDB(cfg.SQLitePath)
	case "none", "":
		log.Println("База данных отключена: результаты игр не сохраняются")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// CloseDatabase закрывает пул соединений, если БД была открыта
func CloseDatabase(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		log.Printf("Error getting sql.DB for close: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

// BuildCatalog загружает каталог вопросов из источника catalog.source
func BuildCatalog(cfg config.CatalogConfig, db *gorm.DB) (*quizmanager.Catalog, error) {
	switch cfg.Source {
	case "db":
		if db == nil {
			return nil, fmt.Errorf("catalog source db requires a database connection")
		}
		return quizmanager.LoadCatalogFromRepo(pgRepo.NewQuestionRepo(db))
	case "file":
		return quizmanager.LoadCatalogFromFile(cfg.Path), nil
	default:
		return quizmanager.LoadCatalogFromFile(""), nil
	}
}

// PredictorConfig переводит настройки в конфигурацию выбора стратегии
func PredictorConfig(cfg config.PredictorConfig) predictor.Config {
	train := predictor.DefaultTrainConfig()
	if cfg.Epochs > 0 {
		train.Epochs = cfg.Epochs
	}
	train.InitSeed = cfg.InitSeed
	return predictor.Config{
		Strategy:  cfg.Strategy,
		ModelPath: cfg.ModelPath,
		Train:     train,
	}
}

// BuildPredictor выбирает стратегию один раз на процесс и оборачивает её метриками
func BuildPredictor(cfg config.PredictorConfig) (quizmanager.DifficultyPredictor, error) {
	p, err := predictor.New(PredictorConfig(cfg))
	if err != nil {
		return nil, err
	}
	return metrics.InstrumentPredictor(p), nil
}

// GameConfig переводит настройки игры в конфигурацию сессий
func GameConfig(cfg config.GameConfig) *quizmanager.Config {
	return &quizmanager.Config{
		MaxRounds:       cfg.MaxRounds,
		WindowSize:      cfg.WindowSize,
		StartDifficulty: cfg.StartDifficulty,
	}
}
