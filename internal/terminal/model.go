// Package terminal реализует игру в терминале поверх GameService.
//
// Модель работает в цикле событий bubbletea и не рассчитана на доступ из других горутин.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/adaptive-trivia/internal/service"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
)

// continueEvery - раз в сколько раундов спрашивать, продолжать ли игру
const continueEvery = 3

const maxNameLength = 50

// screen - текущий экран терминальной игры
type screen int

const (
	screenWelcome screen = iota
	screenQuestion
	screenFeedback
	screenContinue
	screenSummary
)

// tickMsg - секунда обратного отсчёта для вопроса round
type tickMsg struct {
	round int
}

// Model - модель bubbletea для одной игры
type Model struct {
	ctx context.Context
	svc *service.GameService

	screen    screen
	nameInput string

	sessionID string
	player    string
	score     int

	question  *quizmanager.QuestionView
	remaining int
	result    *service.AnswerView
	timedOut  bool
	shownAt   time.Time
	answerDur time.Duration

	report      *service.FinishReport
	interrupted bool
	err         error
}

// NewModel создает модель игры. name - имя игрока; пустое имя запрашивается на первом экране
func NewModel(ctx context.Context, svc *service.GameService, name string) Model {
	return Model{
		ctx:       ctx,
		svc:       svc,
		screen:    screenWelcome,
		nameInput: strings.TrimSpace(name),
	}
}

// Init ничего не запускает: игра начинается после ввода имени
func (m Model) Init() tea.Cmd {
	return nil
}

// Report возвращает итог игры после выхода из программы
func (m Model) Report() *service.FinishReport {
	return m.report
}

// Err возвращает ошибку, прервавшую игру
func (m Model) Err() error {
	return m.err
}

func tick(round int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{round: round}
	})
}

// Update обрабатывает нажатия клавиш и тики таймера
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m.interrupt()
		}
		switch m.screen {
		case screenWelcome:
			return m.updateWelcome(msg)
		case screenQuestion:
			return m.updateQuestion(msg)
		case screenFeedback:
			return m.updateFeedback(msg)
		case screenContinue:
			return m.updateContinue(msg)
		case screenSummary:
			return m, tea.Quit
		}

	case tickMsg:
		if m.screen != screenQuestion || m.question == nil || msg.round != m.question.Round {
			return m, nil // тик от уже отвеченного вопроса
		}
		m.remaining--
		if m.remaining <= 0 {
			return m.timeout()
		}
		return m, tick(msg.round)
	}
	return m, nil
}

func (m Model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput)
		if name == "" {
			name = "Player"
		}
		game, _, err := m.svc.StartGame(m.ctx, name)
		if err != nil {
			return m.fail(err)
		}
		m.sessionID = game.SessionID
		m.player = game.PlayerName
		return m.nextQuestion()
	case tea.KeyBackspace:
		if len(m.nameInput) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.nameInput)
			m.nameInput = m.nameInput[:len(m.nameInput)-size]
		}
	case tea.KeySpace:
		if utf8.RuneCountInString(m.nameInput) < maxNameLength {
			m.nameInput += " "
		}
	case tea.KeyRunes:
		if utf8.RuneCountInString(m.nameInput)+len(msg.Runes) <= maxNameLength {
			m.nameInput += string(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) nextQuestion() (tea.Model, tea.Cmd) {
	q, err := m.svc.NextQuestion(m.ctx, m.sessionID)
	if err != nil {
		return m.fail(err)
	}
	m.question = q
	m.remaining = q.TimeLimit
	m.result = nil
	m.timedOut = false
	m.shownAt = time.Now()
	m.screen = screenQuestion
	return m, tick(q.Round)
}

func (m Model) updateQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return m, nil
	}
	m.answerDur = time.Since(m.shownAt)
	// Время реакции считает сервис от момента показа вопроса
	result, err := m.svc.SubmitAnswer(m.ctx, m.sessionID, m.question.ID, string(msg.Runes), nil)
	if err != nil {
		return m.fail(err)
	}
	return m.showResult(result, false)
}

func (m Model) timeout() (tea.Model, tea.Cmd) {
	m.answerDur = time.Since(m.shownAt)
	result, err := m.svc.Timeout(m.ctx, m.sessionID, nil)
	if err != nil {
		return m.fail(err)
	}
	return m.showResult(result, true)
}

func (m Model) showResult(result *service.AnswerView, timedOut bool) (tea.Model, tea.Cmd) {
	m.result = result
	m.timedOut = timedOut
	m.score = result.Score
	m.screen = screenFeedback
	return m, nil
}

func (m Model) updateFeedback(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter && msg.Type != tea.KeySpace {
		return m, nil
	}
	if m.result == nil || m.result.Finished {
		return m.finish()
	}
	if m.result.Round%continueEvery == 0 {
		m.screen = screenContinue
		return m, nil
	}
	return m.nextQuestion()
}

func (m Model) updateContinue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "n":
		return m.finish()
	case "y", "enter":
		return m.nextQuestion()
	}
	return m, nil
}

// interrupt завершает игру досрочно и показывает итог, как при обычном окончании
func (m Model) interrupt() (tea.Model, tea.Cmd) {
	if m.screen == screenSummary || m.sessionID == "" {
		return m, tea.Quit
	}
	m.interrupted = true
	return m.finish()
}

func (m Model) finish() (tea.Model, tea.Cmd) {
	report, err := m.svc.FinishGame(m.ctx, m.sessionID)
	if err != nil {
		return m.fail(err)
	}
	m.report = report
	m.screen = screenSummary
	return m, nil
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	return m, tea.Quit
}

// View отрисовывает текущий экран
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("An error occurred: %v", m.err)) + "\n"
	}
	switch m.screen {
	case screenWelcome:
		return m.viewWelcome()
	case screenQuestion:
		return m.viewQuestion()
	case screenFeedback:
		return m.viewFeedback()
	case screenContinue:
		return m.viewFeedback() + "\n" + promptStyle.Render("Continue playing? (y/n)") + "\n"
	case screenSummary:
		return m.viewSummary()
	}
	return ""
}

func (m Model) viewWelcome() string {
	var b strings.Builder
	b.WriteString(Header("AI-ENHANCED ADAPTIVE TRIVIA QUIZ GAME"))
	b.WriteString("Welcome to the Trivia Quiz Game that adapts to your performance!\n")
	b.WriteString("The game will adjust its difficulty based on how well you're doing.\n\n")
	b.WriteString(dimStyle.Render(" - Answer each question by pressing the number (1-4) of your choice") + "\n")
	b.WriteString(dimStyle.Render(" - The faster you answer correctly, the more points you earn") + "\n")
	b.WriteString(dimStyle.Render(" - After each question, the difficulty will adjust automatically") + "\n\n")
	b.WriteString(promptStyle.Render("Please enter your name: ") + m.nameInput + "█\n")
	b.WriteString(dimStyle.Render("Enter to begin, Esc to quit") + "\n")
	return b.String()
}

func (m Model) viewQuestion() string {
	q := m.question
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n\n",
		titleStyle.Render(fmt.Sprintf("Round %d", q.Round)),
		dimStyle.Render(fmt.Sprintf("Score: %d | Difficulty: %s", m.score, quizmanager.DifficultyLabel(q.TierValue)))))
	b.WriteString(questionStyle.Render(q.Text) + "\n\n")
	for i, opt := range q.Options {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, opt))
	}
	b.WriteString("\n")
	timer := fmt.Sprintf("Time remaining: %ds", m.remaining)
	if m.remaining <= 3 {
		b.WriteString(errorStyle.Render(timer))
	} else {
		b.WriteString(promptStyle.Render(timer))
	}
	b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("Select your answer (1-%d)", len(q.Options))) + "\n")
	return b.String()
}

func (m Model) viewFeedback() string {
	r := m.result
	var b strings.Builder
	switch {
	case m.timedOut:
		b.WriteString(errorStyle.Render("✗ Time's up! No answer provided.") + "\n")
	case r.Correct:
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ Correct! You earned %d points.", r.Points)) + "\n")
	default:
		b.WriteString(errorStyle.Render("✗ Incorrect answer.") + "\n")
		if m.question != nil && r.CorrectOption >= 0 && r.CorrectOption < len(m.question.Options) {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  The correct answer was %d. %s",
				r.CorrectOption+1, m.question.Options[r.CorrectOption])) + "\n")
		}
	}
	b.WriteString(dimStyle.Render("Answered in "+FormatTime(m.answerDur.Seconds())) + "\n\n")
	b.WriteString(DifficultyChangeLine(r.OldDifficulty, r.NewDifficulty) + "\n")
	b.WriteString("Difficulty level: " + r.DifficultyBar + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Score: %d", r.Score)) + "\n")
	if m.screen == screenFeedback {
		b.WriteString("\n" + dimStyle.Render("Press Enter to continue") + "\n")
	}
	return b.String()
}

func (m Model) viewSummary() string {
	r := m.report
	var b strings.Builder
	if m.interrupted {
		b.WriteString(errorStyle.Render("Game interrupted by player.") + "\n")
	}
	b.WriteString(Header(fmt.Sprintf("GAME SUMMARY FOR %s", strings.ToUpper(r.PlayerName))))
	if !r.HasData {
		b.WriteString("No game data available.\n")
	} else {
		b.WriteString(fmt.Sprintf("Total Rounds Played: %d\n", r.Summary.TotalRounds))
		b.WriteString(fmt.Sprintf("Final Score: %d\n", r.Score))
		b.WriteString(fmt.Sprintf("Average Accuracy: %.1f%%\n", r.Summary.AvgAccuracyPercent))
		b.WriteString(fmt.Sprintf("Average Reaction Time: %.2f seconds\n", r.Summary.AvgReactionTime))
		b.WriteString(fmt.Sprintf("Average Attempts Per Question: %.2f\n", r.Summary.AvgAttempts))
		b.WriteString(fmt.Sprintf("Total Time: %s\n", FormatTime(r.TotalSeconds)))

		switch {
		case r.ExportPath != "":
			b.WriteString("\n" + successStyle.Render("Your game data has been saved to: "+r.ExportPath) + "\n")
		case r.ExportError != "":
			b.WriteString("\n" + errorStyle.Render("Could not save game data: "+r.ExportError) + "\n")
		}
		if r.PersistError != "" {
			b.WriteString(errorStyle.Render("Could not store result: "+r.PersistError) + "\n")
		}
	}
	b.WriteString("\nThank you for playing the Adaptive Trivia Quiz Game!\n")
	b.WriteString(dimStyle.Render("Press any key to exit") + "\n")
	return b.String()
}
