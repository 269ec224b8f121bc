package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
)

// LeaderboardColumns - заголовки выгрузки таблицы лидеров
var LeaderboardColumns = []string{"rank", "player", "score", "correct_answers", "total_rounds", "avg_accuracy_percent", "completed_at"}

// WriteLeaderboardCSV пишет таблицу лидеров в CSV. Имена игроков экранируются от formula injection
func WriteLeaderboardCSV(w io.Writer, results []entity.GameResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(LeaderboardColumns); err != nil {
		return err
	}
	for i, r := range results {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			SanitizeForExcel(r.PlayerName),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.CorrectAnswers),
			strconv.Itoa(r.TotalRounds),
			strconv.FormatFloat(r.AvgAccuracyPercent, 'f', 1, 64),
			r.CompletedAt.Format(timestampLayout),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
