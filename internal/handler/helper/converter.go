package helper

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	ID   int    `json:"id"`  // 0-based индекс
	Key  string `json:"key"` // буква для ответа: a, b, c, d
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id, буквой и текстом
func ConvertOptionsToObjects(options []string) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		// Добавляем дополнительную проверку на пустые строки
		if opt == "" {
			opt = "(пустой вариант)"
		}
		converted[i] = QuestionOption{ID: i, Key: string(rune('a' + i)), Text: opt}
	}
	return converted
}
