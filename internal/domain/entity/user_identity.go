package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserIdentity представляет учетную запись у провайдера идентичности.
// Локальная реализация провайдера хранит учетные данные в этой таблице;
// профиль пользователя (users) живет отдельно и связан по ID.
type UserIdentity struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	DisplayName  string `gorm:"size:200;not null;default:''" json:"display_name"`
	// Role - custom claim учетной записи ("admin", "instructor", "learner").
	Role string `gorm:"size:20;not null;default:'learner'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (UserIdentity) TableName() string {
	return "user_identities"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (i *UserIdentity) BeforeSave(tx *gorm.DB) error {
	// Хешируем пароль только если он:
	// 1. Не пустой
	// 2. Не является уже bcrypt-хешем (начинается с "$2a$", "$2b$" или "$2y$")
	if len(i.PasswordHash) > 0 && !strings.HasPrefix(i.PasswordHash, "$2a$") &&
		!strings.HasPrefix(i.PasswordHash, "$2b$") && !strings.HasPrefix(i.PasswordHash, "$2y$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(i.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[UserIdentity.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", i.Email, err)
			return err
		}
		i.PasswordHash = string(hashed)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (i *UserIdentity) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(password))
	return err == nil
}
