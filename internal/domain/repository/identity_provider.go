package repository

import (
	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// IdentityUpdate - частичное обновление учетной записи у провайдера
type IdentityUpdate struct {
	DisplayName *string
	Password    *string
}

// IdentityProvider - capability-интерфейс внешнего провайдера идентичности.
// Локальная реализация хранит учетные записи в таблице user_identities;
// интерфейс сохраняет границу, чтобы можно было подключить hosted-провайдера.
type IdentityProvider interface {
	// CreateIdentity создает учетную запись и возвращает присвоенный провайдером ID.
	// Дубликат email дает ErrAlreadyExists.
	CreateIdentity(email, password, displayName string) (uint, error)

	// UpdateIdentity применяет частичное обновление; отсутствующая учетная
	// запись дает ErrNotFound.
	UpdateIdentity(id uint, update IdentityUpdate) error

	DeleteIdentity(id uint) error

	// SetRole выставляет custom claim роли на учетной записи
	SetRole(id uint, role string) error

	GetIdentity(id uint) (*entity.UserIdentity, error)

	// Authenticate проверяет учетные данные; при неверной паре email/пароль
	// возвращает ErrUnauthorized.
	Authenticate(email, password string) (*entity.UserIdentity, error)
}
