package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	"github.com/yourusername/learnquest-api/pkg/auth"
)

// AuthService предоставляет методы для аутентификации пользователей
type AuthService struct {
	userRepo   repository.UserRepository
	identity   repository.IdentityProvider
	jwtService *auth.JWTService
}

// RegisterInput содержит все данные для регистрации
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Department string
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(
	userRepo repository.UserRepository,
	identity repository.IdentityProvider,
	jwtService *auth.JWTService,
) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if identity == nil {
		return nil, fmt.Errorf("IdentityProvider is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}

	return &AuthService{
		userRepo:   userRepo,
		identity:   identity,
		jwtService: jwtService,
	}, nil
}

// Register регистрирует нового пользователя: сначала учетную запись у
// провайдера идентичности, затем профиль с тем же ID. Новые пользователи
// всегда получают роль learner; повышение роли выполняет администратор.
func (s *AuthService) Register(input RegisterInput) (*entity.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Department = strings.TrimSpace(input.Department)

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

	displayName := fmt.Sprintf("%s %s", input.FirstName, input.LastName)

	// Сначала учетная запись: при занятом email профиль не создается
	identityID, err := s.identity.CreateIdentity(input.Email, input.Password, displayName)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:         identityID,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Department: input.Department,
		Role:       entity.RoleLearner,
	}
	if err := s.userRepo.Create(user); err != nil {
		// Учетная запись уже создана; откатываем, чтобы не оставить
		// половинчатое состояние
		if delErr := s.identity.DeleteIdentity(identityID); delErr != nil {
			log.Printf("[AuthService] Не удалось откатить учетную запись %d после ошибки профиля: %v", identityID, delErr)
		}
		return nil, err
	}

	log.Printf("[AuthService] Зарегистрирован пользователь: id=%d email=%s", user.ID, user.Email)
	return user, nil
}

// Login проверяет учетные данные и выдает JWT
func (s *AuthService) Login(email, password string) (string, *entity.User, error) {
	email = normalizeEmail(email)

	ident, err := s.identity.Authenticate(email, password)
	if err != nil {
		return "", nil, err
	}

	user, err := s.userRepo.GetByID(ident.ID)
	if err != nil {
		// Учетная запись есть, а профиля нет: рассинхронизация хранилищ
		log.Printf("[AuthService] Учетная запись %d аутентифицирована, но профиль не найден: %v", ident.ID, err)
		return "", nil, fmt.Errorf("%w: profile missing for authenticated account", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// GetUserByID возвращает профиль пользователя по ID
func (s *AuthService) GetUserByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
