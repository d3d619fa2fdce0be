package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Типы вопросов
const (
	QuestionTypeMultipleChoice = "multiple_choice" // ровно один правильный вариант (radio)
	QuestionTypeSelectAll      = "select_all"      // один или более правильных вариантов (checkbox)
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// IntArray - пользовательский тип для JSONB-массивов индексов
type IntArray []int

// Scan реализует интерфейс sql.Scanner для IntArray
func (o *IntArray) Scan(value interface{}) error {
	if value == nil {
		*o = IntArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = IntArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для IntArray
func (o IntArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Question представляет вопрос кампании
type Question struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	CampaignID uint        `gorm:"not null;index" json:"campaign_id"`
	Type       string      `gorm:"size:20;not null" json:"type"` // multiple_choice или select_all
	Text       string      `gorm:"size:1000;not null" json:"text"`
	Options    StringArray `gorm:"type:jsonb;not null" json:"options"`
	// CorrectAnswers - множество индексов правильных вариантов. Скрыто от клиента.
	CorrectAnswers IntArray `gorm:"type:jsonb;not null" json:"-"`
	Points         int      `gorm:"not null;default:0" json:"points"`
	ImageURL       string   `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	// DayNumber присутствует только у вопросов тестовых кампаний (0-based).
	DayNumber *int      `gorm:"index" json:"day_number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// Grade проверяет выбранные индексы на точное совпадение множеств с правильными.
// Частичных совпадений (подмножество/надмножество) недостаточно.
func (q *Question) Grade(selected []int) bool {
	chosen := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		chosen[idx] = struct{}{}
	}
	if len(chosen) != len(q.CorrectAnswers) {
		return false
	}
	for _, idx := range q.CorrectAnswers {
		if _, ok := chosen[idx]; !ok {
			return false
		}
	}
	return true
}

// IsValidOption проверяет, что индекс указывает на существующий вариант ответа
func (q *Question) IsValidOption(index int) bool {
	return index >= 0 && index < len(q.Options)
}

// Validate проверяет инварианты вопроса перед сохранением
func (q *Question) Validate() error {
	if q.Type != QuestionTypeMultipleChoice && q.Type != QuestionTypeSelectAll {
		return errors.New("invalid question type")
	}
	if len(q.Options) == 0 {
		return errors.New("options must not be empty")
	}
	for _, opt := range q.Options {
		if opt == "" {
			return errors.New("option text must not be empty")
		}
	}
	if len(q.CorrectAnswers) == 0 {
		return errors.New("correct answers must not be empty")
	}
	if q.Type == QuestionTypeMultipleChoice && len(q.CorrectAnswers) != 1 {
		return errors.New("multiple_choice question must have exactly one correct answer")
	}
	seen := make(map[int]struct{}, len(q.CorrectAnswers))
	for _, idx := range q.CorrectAnswers {
		if !q.IsValidOption(idx) {
			return errors.New("correct answer index out of range")
		}
		if _, dup := seen[idx]; dup {
			return errors.New("duplicate correct answer index")
		}
		seen[idx] = struct{}{}
	}
	if q.Points < 0 {
		return errors.New("points must be non-negative")
	}
	return nil
}
