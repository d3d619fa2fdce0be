package repository

import (
	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// UserPatch - типизированное частичное обновление профиля
type UserPatch struct {
	FirstName  *string
	LastName   *string
	Department *string
	Role       *string
}

// Empty сообщает, что патч не содержит ни одного изменения
func (p *UserPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Department == nil && p.Role == nil
}

// UserRepository определяет методы для работы с профилями пользователей
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetAll() ([]entity.User, error)

	// ApplyPatch применяет валидированный патч одним UPDATE
	// и проставляет updated_at.
	ApplyPatch(id uint, patch *UserPatch) error

	Delete(id uint) error
}
