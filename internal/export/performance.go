// Package export выгружает журнал раундов в CSV и XLSX.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// Форматы выгрузки
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const timestampLayout = "2006-01-02 15:04:05.000000"

// Columns - заголовки колонок выгрузки
var Columns = []string{"round", "difficulty", "accuracy", "reaction_time", "attempts", "timestamp"}

// ContentType возвращает MIME-тип формата
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write пишет журнал в w в указанном формате
func Write(w io.Writer, format string, records []entity.PerformanceRecord) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}
}

// WriteCSV пишет журнал в CSV
func WriteCSV(w io.Writer, records []entity.PerformanceRecord) error {
	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Round),
			strconv.FormatFloat(r.Difficulty, 'f', -1, 64),
			strconv.FormatFloat(r.Accuracy, 'f', -1, 64),
			strconv.FormatFloat(r.ReactionTime, 'f', -1, 64),
			strconv.Itoa(r.Attempts),
			r.Timestamp.Format(timestampLayout),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX пишет журнал в Excel с использованием StreamWriter
func WriteXLSX(w io.Writer, records []entity.PerformanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Performance"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	headers := make([]interface{}, len(Columns))
	for i, c := range Columns {
		headers[i] = c
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Round, r.Difficulty, r.Accuracy, r.ReactionTime, r.Attempts, r.Timestamp.Format(timestampLayout)}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.Write(w)
}

// sessionSuffixLength - сколько символов ID сессии попадает в имя файла
const sessionSuffixLength = 8

// maxNameAttempts ограничивает перебор имён при совпадении файлов
const maxNameAttempts = 100

// FileName формирует имя файла вида <игрок>_performance_<YYYYMMDD_HHMMSS>_<сессия>.<формат>.
// Пустой sessionID опускается.
func FileName(playerName, sessionID string, at time.Time, format string) string {
	if format == "" {
		format = FormatCSV
	}
	name := fmt.Sprintf("%s_performance_%s", safeName(playerName), at.Format("20060102_150405"))
	if suffix := sessionSuffix(sessionID); suffix != "" {
		name += "_" + suffix
	}
	return name + "." + format
}

func sessionSuffix(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return ""
	}
	suffix := safeName(sessionID)
	if len(suffix) > sessionSuffixLength {
		suffix = suffix[:sessionSuffixLength]
	}
	return suffix
}

// SaveCSV сохраняет журнал в новый CSV-файл в каталоге dir и возвращает путь к файлу.
// Существующие файлы не перезаписываются: при совпадении имени добавляется счётчик.
func SaveCSV(dir, playerName, sessionID string, at time.Time, records []entity.PerformanceRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	file, path, err := createUnique(dir, FileName(playerName, sessionID, at, FormatCSV))
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := WriteCSV(file, records); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return path, nil
}

// createUnique создает файл name в dir, а если он уже есть, name_2, name_3 и так далее
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxNameAttempts; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(dir, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s after %d attempts", name, maxNameAttempts)
}

// safeName оставляет в имени игрока только буквы, цифры, '-' и '_'
func safeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	if cleaned == "" {
		return "player"
	}
	return cleaned
}

// SanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func SanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
