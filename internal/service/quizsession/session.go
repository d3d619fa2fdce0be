package quizsession

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// Константы по умолчанию
const (
	// DefaultMaxAttempts - лимит попыток на вопрос: одна основная и один повтор
	DefaultMaxAttempts = 2

	// DefaultSessionTTL - время жизни состояния сессии в Redis
	DefaultSessionTTL = 24 * time.Hour
)

// Состояния прохождения текущего вопроса
const (
	// StateAwaitingSelection - выбор еще не сделан (или сброшен после неверной попытки)
	StateAwaitingSelection = "awaiting_selection"

	// StateAwaitingSubmission - выбор непуст, можно отправлять
	StateAwaitingSubmission = "awaiting_submission"

	// StateGradedCorrect / StateGradedIncorrect - ответ оценен; выбор заблокирован
	StateGradedCorrect   = "graded_correct"
	StateGradedIncorrect = "graded_incorrect"

	// StateComplete - вопросы сессии исчерпаны (или дневной лимит достигнут)
	StateComplete = "complete"
)

// Ошибки переходов состояния
var (
	// ErrSelectionLocked - попытка изменить выбор после оценки ответа
	ErrSelectionLocked = errors.New("selection is locked for a graded question")

	// ErrEmptySelection - отправка без выбранных вариантов
	ErrEmptySelection = errors.New("no answers selected")

	// ErrSessionComplete - действие над завершенной сессией
	ErrSessionComplete = errors.New("session is complete")

	// ErrInvalidOption - индекс варианта вне диапазона вопроса
	ErrInvalidOption = errors.New("option index out of range")
)

// Session - состояние прохождения кампании пользователем.
// Живет в Redis между запросами и восстанавливается из журнала ответов
// при старте; единственная долговременная мутация на каждую отправку -
// append в журнал ответов.
type Session struct {
	ID         string `json:"id"`
	UserID     uint   `json:"user_id"`
	CampaignID uint   `json:"campaign_id"`

	// QuestionIDs - упорядоченный набор вопросов сессии (для тестовой
	// кампании - только вопросы текущего дня).
	QuestionIDs  []uint `json:"question_ids"`
	CurrentIndex int    `json:"current_index"`

	// TestDay - день кампании, под который собрана сессия (nil для обычных).
	// Если админ сместил глобальный день, сессия пересобирается.
	TestDay *int `json:"test_day,omitempty"`

	Selected []int  `json:"selected"`
	Attempts int    `json:"attempts"` // попыток по текущему вопросу
	State    string `json:"state"`

	// TotalScore - счет по журналу ответов на момент старта сессии плюс
	// очки, заработанные в ней. Авторитетное значение всегда в журнале.
	TotalScore int `json:"total_score"`

	// AnsweredQuestions - вопросы, закрытые в этой сессии (верно или
	// исчерпаны попытки).
	AnsweredQuestions []uint `json:"answered_questions"`

	StartedAt time.Time `json:"started_at"`
}

// New создает сессию по подготовленному набору вопросов
func New(userID, campaignID uint, questionIDs []uint, testDay *int, totalScore int) *Session {
	s := &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		CampaignID:   campaignID,
		QuestionIDs:  questionIDs,
		CurrentIndex: 0,
		TestDay:      testDay,
		Selected:     []int{},
		State:        StateAwaitingSelection,
		TotalScore:   totalScore,
		StartedAt:    time.Now(),
	}
	if len(questionIDs) == 0 {
		s.State = StateComplete
	}
	return s
}

// CurrentQuestionID возвращает ID текущего вопроса сессии
func (s *Session) CurrentQuestionID() (uint, bool) {
	if s.State == StateComplete || s.CurrentIndex >= len(s.QuestionIDs) {
		return 0, false
	}
	return s.QuestionIDs[s.CurrentIndex], true
}

// Graded сообщает, оценен ли текущий вопрос
func (s *Session) Graded() bool {
	return s.State == StateGradedCorrect || s.State == StateGradedIncorrect
}

// Select применяет выбор варианта к текущему вопросу.
// multiple_choice: выбор замещает предыдущий (radio-семантика).
// select_all: выбор переключает членство индекса (checkbox-семантика).
func (s *Session) Select(question *entity.Question, index int) error {
	if s.State == StateComplete {
		return ErrSessionComplete
	}
	if s.Graded() {
		return ErrSelectionLocked
	}
	if !question.IsValidOption(index) {
		return ErrInvalidOption
	}

	if question.Type == entity.QuestionTypeMultipleChoice {
		s.Selected = []int{index}
	} else {
		toggled := make([]int, 0, len(s.Selected)+1)
		found := false
		for _, i := range s.Selected {
			if i == index {
				found = true
				continue
			}
			toggled = append(toggled, i)
		}
		if !found {
			toggled = append(toggled, index)
		}
		s.Selected = toggled
	}

	if len(s.Selected) == 0 {
		s.State = StateAwaitingSelection
	} else {
		s.State = StateAwaitingSubmission
	}
	return nil
}

// SubmitOutcome - результат отправки ответа
type SubmitOutcome struct {
	IsCorrect     bool
	PointsEarned  int
	AttemptNumber int

	// WillRetry - ответ неверный, но попытки не исчерпаны: выбор сброшен,
	// вопрос остается текущим.
	WillRetry bool

	// Advanced - сессия перешла к следующему вопросу
	Advanced bool

	// SessionComplete - вопросов больше нет
	SessionComplete bool
}

// Grade оценивает текущий выбор без побочных эффектов.
// Вызывающий обязан сперва зафиксировать ответ в журнале и лишь затем
// применить переход через Resolve: провал записи оставляет сессию нетронутой.
func (s *Session) Grade(question *entity.Question) (isCorrect bool, attemptNumber int, err error) {
	if s.State == StateComplete {
		return false, 0, ErrSessionComplete
	}
	if s.Graded() {
		return false, 0, ErrSelectionLocked
	}
	if len(s.Selected) == 0 {
		return false, 0, ErrEmptySelection
	}
	return question.Grade(s.Selected), s.Attempts + 1, nil
}

// Resolve применяет переход после успешной записи ответа в журнал.
// Политика повтора: ровно один повтор на вопрос. Неверный первый ответ
// возвращает вопрос в выбор; верный ответ или вторая неудача продвигают
// сессию дальше.
func (s *Session) Resolve(question *entity.Question, isCorrect bool, maxAttempts int) *SubmitOutcome {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	s.Attempts++
	outcome := &SubmitOutcome{
		IsCorrect:     isCorrect,
		AttemptNumber: s.Attempts,
	}

	if isCorrect {
		outcome.PointsEarned = question.Points
		s.TotalScore += question.Points
		s.State = StateGradedCorrect
	} else {
		s.State = StateGradedIncorrect
	}

	if !isCorrect && s.Attempts < maxAttempts {
		// Повтор: выбор очищается, вопрос не меняется
		outcome.WillRetry = true
		s.Selected = []int{}
		s.State = StateAwaitingSelection
		return outcome
	}

	// Верный ответ или исчерпанные попытки закрывают вопрос
	s.AnsweredQuestions = append(s.AnsweredQuestions, s.QuestionIDs[s.CurrentIndex])
	s.advance()
	outcome.Advanced = true
	outcome.SessionComplete = s.State == StateComplete
	return outcome
}

// advance переводит сессию к следующему вопросу либо завершает ее
func (s *Session) advance() {
	s.CurrentIndex++
	s.Selected = []int{}
	s.Attempts = 0
	if s.CurrentIndex >= len(s.QuestionIDs) {
		s.State = StateComplete
	} else {
		s.State = StateAwaitingSelection
	}
}
