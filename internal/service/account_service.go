package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// AccountService - административный шлюз мутаций учетных записей.
// Все операции требуют роль admin у вызывающего; проверка выполняется
// до любой валидации входных данных. Каждая мутация затрагивает два
// хранилища: учетную запись у провайдера идентичности и профиль.
type AccountService struct {
	userRepo repository.UserRepository
	identity repository.IdentityProvider
	email    EmailService
}

// NewAccountService создает шлюз мутаций учетных записей
func NewAccountService(
	userRepo repository.UserRepository,
	identity repository.IdentityProvider,
	email EmailService,
) (*AccountService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AccountService")
	}
	if identity == nil {
		return nil, fmt.Errorf("IdentityProvider is required for AccountService")
	}
	if email == nil {
		email = &NoopEmailService{}
	}

	return &AccountService{
		userRepo: userRepo,
		identity: identity,
		email:    email,
	}, nil
}

// CreateAccountInput содержит данные для создания учетной записи
type CreateAccountInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Department string
	Role       string
}

// UpdateAccountInput содержит изменяемые поля учетной записи.
// Nil-поле означает "не менять".
type UpdateAccountInput struct {
	FirstName  *string
	LastName   *string
	Department *string
	Role       *string
}

// requireAdmin проверяет роль вызывающего. Вызывается первой в каждой
// операции: не-администратор получает ErrForbidden независимо от
// валидности остальных данных.
func (s *AccountService) requireAdmin(callerRole string) error {
	if callerRole != entity.RoleAdmin {
		return fmt.Errorf("%w: admin role required", apperrors.ErrForbidden)
	}
	return nil
}

// CreateAccount создает учетную запись и профиль пользователя.
// Если учетная запись создана, а профиль нет, запись не откатывается:
// ошибка явно сообщает о частичном результате, чтобы администратор
// мог повторить создание профиля или удалить запись.
func (s *AccountService) CreateAccount(ctx context.Context, callerRole string, input CreateAccountInput) (*entity.User, error) {
	if err := s.requireAdmin(callerRole); err != nil {
		return nil, err
	}

	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Department = strings.TrimSpace(input.Department)
	if input.Role == "" {
		input.Role = entity.RoleLearner
	}

	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", apperrors.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("%w: firstName and lastName are required", apperrors.ErrValidation)
	}
	if !entity.IsValidDepartment(input.Department) {
		return nil, fmt.Errorf("%w: unknown department %q", apperrors.ErrValidation, input.Department)
	}
	if !entity.IsValidRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, input.Role)
	}

	displayName := fmt.Sprintf("%s %s", input.FirstName, input.LastName)

	identityID, err := s.identity.CreateIdentity(input.Email, input.Password, displayName)
	if err != nil {
		return nil, err
	}
	if err := s.identity.SetRole(identityID, input.Role); err != nil {
		// Учетная запись существует с ролью по умолчанию
		log.Printf("[AccountService] Не удалось установить роль учетной записи %d: %v", identityID, err)
		return nil, fmt.Errorf("identity created but role assignment failed: %w", err)
	}

	user := &entity.User{
		ID:         identityID,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Department: input.Department,
		Role:       input.Role,
	}
	if err := s.userRepo.Create(user); err != nil {
		// Учетная запись существует без профиля
		log.Printf("[AccountService] Учетная запись %d создана, но профиль не сохранен: %v", identityID, err)
		return nil, fmt.Errorf("identity created but profile save failed: %w", err)
	}

	if err := s.email.SendAccountCreated(ctx, user.Email, displayName); err != nil {
		log.Printf("[AccountService] Не удалось отправить уведомление о создании %s: %v", user.Email, err)
	}

	log.Printf("[AccountService] Создана учетная запись: id=%d email=%s role=%s", user.ID, user.Email, user.Role)
	return user, nil
}

// UpdateAccount изменяет профиль и синхронизирует производные поля
// учетной записи: отображаемое имя при смене имени или фамилии, роль -
// в обоих хранилищах.
func (s *AccountService) UpdateAccount(callerRole string, userID uint, input UpdateAccountInput) (*entity.User, error) {
	if err := s.requireAdmin(callerRole); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	patch := &repository.UserPatch{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, fmt.Errorf("%w: firstName must not be empty", apperrors.ErrValidation)
		}
		patch.FirstName = &name
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, fmt.Errorf("%w: lastName must not be empty", apperrors.ErrValidation)
		}
		patch.LastName = &name
		user.LastName = name
	}
	if input.Department != nil {
		if !entity.IsValidDepartment(*input.Department) {
			return nil, fmt.Errorf("%w: unknown department %q", apperrors.ErrValidation, *input.Department)
		}
		patch.Department = input.Department
		user.Department = *input.Department
	}
	if input.Role != nil {
		if !entity.IsValidRole(*input.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, *input.Role)
		}
		patch.Role = input.Role
		user.Role = *input.Role
	}

	if err := s.userRepo.ApplyPatch(userID, patch); err != nil {
		return nil, err
	}

	// Производные поля учетной записи синхронизируются вслед за профилем;
	// провал синхронизации - ошибка операции, иначе следующий вход выдаст
	// токен с устаревшей ролью
	if input.FirstName != nil || input.LastName != nil {
		displayName := user.FullName()
		if err := s.identity.UpdateIdentity(userID, repository.IdentityUpdate{DisplayName: &displayName}); err != nil {
			log.Printf("[AccountService] Не удалось обновить отображаемое имя %d: %v", userID, err)
			return nil, fmt.Errorf("profile updated but identity sync failed: %w", err)
		}
	}
	if input.Role != nil {
		if err := s.identity.SetRole(userID, *input.Role); err != nil {
			log.Printf("[AccountService] Не удалось синхронизировать роль %d: %v", userID, err)
			return nil, fmt.Errorf("profile updated but role sync failed: %w", err)
		}
	}

	log.Printf("[AccountService] Обновлена учетная запись: id=%d email=%s", user.ID, user.Email)
	return user, nil
}

// ResetPassword устанавливает новый пароль учетной записи
func (s *AccountService) ResetPassword(ctx context.Context, callerRole string, userID uint, newPassword string) error {
	if err := s.requireAdmin(callerRole); err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := s.identity.UpdateIdentity(userID, repository.IdentityUpdate{Password: &newPassword}); err != nil {
		return err
	}

	if err := s.email.SendPasswordReset(ctx, user.Email, user.FullName()); err != nil {
		log.Printf("[AccountService] Не удалось отправить уведомление о сбросе пароля %s: %v", user.Email, err)
	}

	log.Printf("[AccountService] Сброшен пароль: id=%d email=%s", userID, user.Email)
	return nil
}

// DeleteAccount удаляет учетную запись и профиль. Сначала удаляется
// учетная запись: если падает она, профиль остается нетронутым; если
// падает удаление профиля, остается профиль без входа.
func (s *AccountService) DeleteAccount(callerRole string, userID uint) error {
	if err := s.requireAdmin(callerRole); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := s.identity.DeleteIdentity(userID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(userID); err != nil {
		log.Printf("[AccountService] Учетная запись %s удалена, но профиль остался: %v", user.Email, err)
		return fmt.Errorf("identity deleted but profile removal failed: %w", err)
	}

	log.Printf("[AccountService] Удалена учетная запись: id=%d email=%s", userID, user.Email)
	return nil
}

// ListAccounts возвращает все профили пользователей
func (s *AccountService) ListAccounts(callerRole string) ([]entity.User, error) {
	if err := s.requireAdmin(callerRole); err != nil {
		return nil, err
	}
	return s.userRepo.GetAll()
}
