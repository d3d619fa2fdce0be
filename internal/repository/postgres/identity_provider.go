package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// LocalIdentityProvider - локальная реализация repository.IdentityProvider
// поверх таблицы user_identities (bcrypt-хеши, display name, role claim).
// Хранит учетные записи отдельно от профилей (users), сохраняя границу
// внешнего провайдера идентичности.
type LocalIdentityProvider struct {
	db *gorm.DB
}

// NewLocalIdentityProvider создает локального провайдера идентичности
func NewLocalIdentityProvider(db *gorm.DB) *LocalIdentityProvider {
	return &LocalIdentityProvider{db: db}
}

// CreateIdentity создает учетную запись и возвращает присвоенный ID
func (p *LocalIdentityProvider) CreateIdentity(email, password, displayName string) (uint, error) {
	identity := &entity.UserIdentity{
		Email:        email,
		PasswordHash: password, // хешируется в BeforeSave
		DisplayName:  displayName,
		Role:         entity.RoleLearner,
	}
	if err := p.db.Create(identity).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("identity for %s: %w", email, apperrors.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("failed to create identity: %w", err)
	}
	return identity.ID, nil
}

// UpdateIdentity применяет частичное обновление учетной записи
func (p *LocalIdentityProvider) UpdateIdentity(id uint, update repository.IdentityUpdate) error {
	identity, err := p.GetIdentity(id)
	if err != nil {
		return err
	}

	if update.DisplayName != nil {
		identity.DisplayName = *update.DisplayName
	}
	if update.Password != nil {
		identity.PasswordHash = *update.Password // перехешируется в BeforeSave
	}
	identity.UpdatedAt = time.Now()

	if err := p.db.Save(identity).Error; err != nil {
		return fmt.Errorf("failed to update identity #%d: %w", id, err)
	}
	return nil
}

// DeleteIdentity удаляет учетную запись
func (p *LocalIdentityProvider) DeleteIdentity(id uint) error {
	result := p.db.Delete(&entity.UserIdentity{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete identity #%d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetRole выставляет custom claim роли на учетной записи
func (p *LocalIdentityProvider) SetRole(id uint, role string) error {
	result := p.db.Model(&entity.UserIdentity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set role for identity #%d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetIdentity возвращает учетную запись по ID
func (p *LocalIdentityProvider) GetIdentity(id uint) (*entity.UserIdentity, error) {
	var identity entity.UserIdentity
	err := p.db.First(&identity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// Authenticate проверяет пару email/пароль.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (p *LocalIdentityProvider) Authenticate(email, password string) (*entity.UserIdentity, error) {
	var identity entity.UserIdentity
	err := p.db.Where("email = ?", email).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !identity.CheckPassword(password) {
		return nil, apperrors.ErrUnauthorized
	}
	return &identity, nil
}
