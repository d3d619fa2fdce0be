package entity

import (
	"time"
)

// Роли пользователей (хранятся как custom claim учетной записи и в профиле)
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleLearner    = "learner"
)

// Departments - фиксированный набор отделов
var Departments = []string{
	"Learning and Development",
	"Culture Team",
	"Right2Drive",
}

// IsValidRole проверяет, входит ли роль в фиксированный набор
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleInstructor || role == RoleLearner
}

// IsValidDepartment проверяет, входит ли отдел в фиксированный набор
func IsValidDepartment(department string) bool {
	for _, d := range Departments {
		if d == department {
			return true
		}
	}
	return false
}

// User представляет профиль пользователя.
// ID совпадает с ID учетной записи у провайдера идентичности (one-to-one).
// Профиль создается отдельным шагом после создания учетной записи, поэтому
// возможно окно, когда учетная запись существует без профиля ("новый пользователь").
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Email      string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	FirstName  string `gorm:"size:100;not null" json:"first_name"`
	LastName   string `gorm:"size:100;not null" json:"last_name"`
	Department string `gorm:"size:100;not null" json:"department"`
	// Role дублирует custom claim учетной записи; Identity & Profile Gateway
	// обязан держать оба значения в согласованном состоянии.
	Role string `gorm:"size:20;not null;default:'learner'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// FullName возвращает отображаемое имя профиля
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
