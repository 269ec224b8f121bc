package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
)

// NewSQLiteDB открывает локальную базу SQLite и создаёт схему через AutoMigrate.
// SQL-миграции в migrations/ написаны для PostgreSQL и здесь не применяются.
func NewSQLiteDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite не допускает параллельной записи
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&entity.Question{}, &entity.GameResult{}, &entity.PerformanceRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	log.Printf("SQLite база %s готова", path)
	return db, nil
}
