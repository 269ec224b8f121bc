package terminal

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
)

const headerWidth = 80

// unchangedThreshold - изменения сложности меньше порога показываются как "без изменений"
const unchangedThreshold = 0.05

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// FormatTime форматирует секунды: до минуты "12.34 seconds", дальше "M:S.SS"
func FormatTime(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.2f seconds", seconds)
	}
	mins := math.Floor(seconds / 60)
	secs := seconds - mins*60
	return fmt.Sprintf("%d:%.2f", int(mins), secs)
}

// Centered выравнивает текст по центру строки, заполняя края символом fill
func Centered(text string, width int, fill string) string {
	n := lipgloss.Width(text)
	if n+4 >= width {
		return text
	}
	remaining := width - n - 2
	left := remaining / 2
	right := remaining - left
	return strings.Repeat(fill, left) + " " + text + " " + strings.Repeat(fill, right)
}

// Header рисует заголовок экрана
func Header(text string) string {
	line := strings.Repeat("=", headerWidth)
	return "\n" + line + "\n" + titleStyle.Render(Centered(text, headerWidth, "=")) + "\n" + line + "\n\n"
}

// DifficultyChangeLine описывает изменение сложности между раундами
func DifficultyChangeLine(oldD, newD float64) string {
	oldLabel := quizmanager.DifficultyLabel(oldD)
	newLabel := quizmanager.DifficultyLabel(newD)
	switch {
	case math.Abs(newD-oldD) < unchangedThreshold:
		return "Difficulty remains at " + newLabel
	case newD > oldD:
		return fmt.Sprintf("Difficulty increased: %s → %s", oldLabel, newLabel)
	default:
		return fmt.Sprintf("Difficulty decreased: %s → %s", oldLabel, newLabel)
	}
}
