package main

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yourusername/adaptive-trivia/internal/bootstrap"
	"github.com/yourusername/adaptive-trivia/internal/config"
	"github.com/yourusername/adaptive-trivia/internal/domain/repository"
	pgRepo "github.com/yourusername/adaptive-trivia/internal/repository/postgres"
	"github.com/yourusername/adaptive-trivia/internal/service"
	"github.com/yourusername/adaptive-trivia/internal/terminal"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Логи сервисов не должны ломать экран игры
		logFile, _ := cmd.Flags().GetString("log")
		if logFile != "" {
			f, err := tea.LogToFile(logFile, "trivia")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
		} else {
			log.SetOutput(io.Discard)
		}

		cfg, err := config.Load(resolveConfigPath(cmd))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if rounds, _ := cmd.Flags().GetInt("rounds"); rounds > 0 {
			cfg.Game.MaxRounds = rounds
		}

		db, err := bootstrap.OpenDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer bootstrap.CloseDatabase(db)

		var perfRepo repository.PerformanceRepository
		if db != nil {
			perfRepo = pgRepo.NewPerformanceRepo(db)
		}

		catalog, err := bootstrap.BuildCatalog(cfg.Catalog, db)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		difficultyPredictor, err := bootstrap.BuildPredictor(cfg.Predictor)
		if err != nil {
			return fmt.Errorf("init predictor: %w", err)
		}

		// Тикеты и снимки сессий в терминале не нужны
		gameService := service.NewGameService(
			service.GameServiceConfig{
				Game:      bootstrap.GameConfig(cfg.Game),
				ExportDir: cfg.Export.Dir,
			},
			catalog, difficultyPredictor, nil, perfRepo, nil,
		)

		name, _ := cmd.Flags().GetString("name")
		model := terminal.NewModel(cmd.Context(), gameService, name)

		final, err := tea.NewProgram(model).Run()
		if err != nil {
			return fmt.Errorf("run terminal game: %w", err)
		}
		if m, ok := final.(terminal.Model); ok && m.Err() != nil {
			return m.Err()
		}
		return nil
	},
}

func init() {
	playCmd.Flags().String("name", "", "Player name (asked on start when empty)")
	playCmd.Flags().Int("rounds", 0, "Number of rounds (overrides game.max_rounds)")
	playCmd.Flags().String("log", "", "Write logs to this file instead of discarding them")
}
