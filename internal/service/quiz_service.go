package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	"github.com/yourusername/learnquest-api/internal/service/quizsession"
)

// QuizService управляет прохождением квизов: сборкой сессий из журнала
// ответов, выбором вариантов и отправкой ответов. Состояние сессии живет
// в Redis; единственная авторитетная запись о прогрессе - журнал ответов.
type QuizService struct {
	campaignRepo    repository.CampaignRepository
	questionRepo    repository.QuestionRepository
	participantRepo repository.ParticipantRepository
	responseRepo    repository.ResponseRepository
	userRepo        repository.UserRepository
	cache           repository.CacheRepository

	maxAttempts int
	sessionTTL  time.Duration

	// now подменяется в тестах для проверки календарной логики
	now func() time.Time
}

// NewQuizService создает новый сервис прохождения квизов
func NewQuizService(
	campaignRepo repository.CampaignRepository,
	questionRepo repository.QuestionRepository,
	participantRepo repository.ParticipantRepository,
	responseRepo repository.ResponseRepository,
	userRepo repository.UserRepository,
	cache repository.CacheRepository,
	maxAttempts int,
	sessionTTL time.Duration,
) (*QuizService, error) {
	if campaignRepo == nil {
		return nil, fmt.Errorf("CampaignRepository is required for QuizService")
	}
	if questionRepo == nil {
		return nil, fmt.Errorf("QuestionRepository is required for QuizService")
	}
	if participantRepo == nil {
		return nil, fmt.Errorf("ParticipantRepository is required for QuizService")
	}
	if responseRepo == nil {
		return nil, fmt.Errorf("ResponseRepository is required for QuizService")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for QuizService")
	}
	if cache == nil {
		return nil, fmt.Errorf("CacheRepository is required for QuizService")
	}
	if maxAttempts <= 0 {
		maxAttempts = quizsession.DefaultMaxAttempts
	}
	if sessionTTL <= 0 {
		sessionTTL = quizsession.DefaultSessionTTL
	}

	return &QuizService{
		campaignRepo:    campaignRepo,
		questionRepo:    questionRepo,
		participantRepo: participantRepo,
		responseRepo:    responseRepo,
		userRepo:        userRepo,
		cache:           cache,
		maxAttempts:     maxAttempts,
		sessionTTL:      sessionTTL,
		now:             time.Now,
	}, nil
}

// StartResult - результат старта (или возобновления) сессии
type StartResult struct {
	Session  *quizsession.Session
	Question *entity.Question

	// CompletedToday - все вопросы текущего тестового дня уже закрыты
	// сегодня; новых вопросов не будет до смены дня или даты.
	CompletedToday bool
}

// SubmitResult - результат отправки ответа
type SubmitResult struct {
	Outcome      *quizsession.SubmitOutcome
	Session      *quizsession.Session
	NextQuestion *entity.Question

	// FinalDayReached - авто-продвижение тестового дня уперлось в последний день
	FinalDayReached bool
	// DayAdvanced - тестовый день кампании продвинут после завершения сессии
	DayAdvanced bool
}

func sessionKey(userID, campaignID uint) string {
	return fmt.Sprintf("quiz_session:%d:%d", userID, campaignID)
}

// StartSession собирает сессию прохождения кампании. Для тестовой
// кампании закрытые по журналу ответов вопросы (верный ответ или
// исчерпанные попытки) в сессию не попадают: перезапуск не обнуляет
// прогресс дня. Для обычной кампании журнал сужается до текущей
// календарной даты: вопросы открываются заново каждый день, а "пройдено
// сегодня" выводится сравнением числа сегодняшних ответов с числом
// вопросов кампании. Живая сессия возобновляется, пока не сместился
// тестовый день и не сменилась дата.
func (s *QuizService) StartSession(userID, campaignID uint) (*StartResult, error) {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.EffectiveActive(s.now()) {
		return nil, fmt.Errorf("%w: campaign is not active", apperrors.ErrValidation)
	}

	isParticipant, err := s.participantRepo.IsParticipant(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: user has not joined this campaign", apperrors.ErrForbidden)
	}

	var day *int
	if campaign.IsTestCampaign {
		d := campaign.TestDay()
		day = &d
	}

	// Возобновляем живую сессию, если тестовый день не сместился и
	// календарная дата та же: со сменой даты обычная кампания
	// пересобирается с заново открытыми вопросами
	if existing := s.loadSession(userID, campaignID); existing != nil &&
		sameDay(existing.TestDay, day) && sameCalendarDay(existing.StartedAt, s.now()) {
		if existing.State != quizsession.StateComplete {
			question, err := s.questionRepo.GetByID(mustCurrentQuestion(existing))
			if err == nil {
				return &StartResult{Session: existing, Question: question}, nil
			}
			// Вопрос удален из-под сессии: пересобираем ее заново
			log.Printf("[QuizService] Сессия %s ссылается на недоступный вопрос, пересборка: %v", existing.ID, err)
		}
	}

	questions, err := s.questionRepo.GetByCampaignID(campaignID, day)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.GetByUserAndCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	// Тестовая кампания закрывает вопросы по всему журналу; обычная -
	// только по сегодняшним ответам
	ledger := responses
	if !campaign.IsTestCampaign {
		ledger = s.todaysResponses(responses)
	}
	remaining, lastClosedAt := s.openQuestions(questions, ledger)

	totalScore, err := s.responseRepo.SumPoints(userID, campaignID)
	if err != nil {
		return nil, err
	}

	result := &StartResult{}
	if campaign.IsTestCampaign {
		if len(remaining) == 0 && lastClosedAt != nil {
			// Календарная дата процесса: закрытый сегодня день не открывается заново
			result.CompletedToday = sameCalendarDay(*lastClosedAt, s.now())
		}
	} else if len(questions) > 0 && len(ledger) >= len(questions) {
		// Число сегодняшних ответов достигло числа вопросов: до следующей
		// календарной даты отправки заблокированы
		result.CompletedToday = true
		remaining = nil
	}

	session := quizsession.New(userID, campaignID, remaining, day, totalScore)
	if err := s.saveSession(session); err != nil {
		return nil, err
	}
	result.Session = session

	if id, ok := session.CurrentQuestionID(); ok {
		question, err := s.questionRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		result.Question = question
	}

	log.Printf("[QuizService] Сессия %s: user=%d campaign=%d questions=%d score=%d", session.ID, userID, campaignID, len(remaining), totalScore)
	return result, nil
}

// GetSession возвращает живую сессию пользователя в кампании
func (s *QuizService) GetSession(userID, campaignID uint) (*quizsession.Session, *entity.Question, error) {
	session := s.loadSession(userID, campaignID)
	if session == nil {
		return nil, nil, fmt.Errorf("%w: no active quiz session", apperrors.ErrNotFound)
	}

	var question *entity.Question
	if id, ok := session.CurrentQuestionID(); ok {
		q, err := s.questionRepo.GetByID(id)
		if err != nil {
			return nil, nil, err
		}
		question = q
	}
	return session, question, nil
}

// Select применяет выбор варианта к текущему вопросу сессии.
// multiple_choice замещает выбор, select_all переключает вариант.
func (s *QuizService) Select(userID, campaignID uint, optionIndex int) (*quizsession.Session, error) {
	session := s.loadSession(userID, campaignID)
	if session == nil {
		return nil, fmt.Errorf("%w: no active quiz session", apperrors.ErrNotFound)
	}

	questionID, ok := session.CurrentQuestionID()
	if !ok {
		return nil, fmt.Errorf("%w: quiz session is complete", apperrors.ErrConflict)
	}
	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}

	if err := session.Select(question, optionIndex); err != nil {
		return nil, mapSessionError(err)
	}

	if err := s.saveSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit оценивает текущий выбор и фиксирует результат.
// Порядок строгий: сначала append в журнал ответов, затем переход сессии.
// Провал записи в журнал оставляет сессию нетронутой, отправку можно
// повторить. Очки начисляются однократно в момент записи и дальше не
// пересчитываются.
func (s *QuizService) Submit(userID, campaignID uint) (*SubmitResult, error) {
	session := s.loadSession(userID, campaignID)
	if session == nil {
		return nil, fmt.Errorf("%w: no active quiz session", apperrors.ErrNotFound)
	}

	questionID, ok := session.CurrentQuestionID()
	if !ok {
		return nil, fmt.Errorf("%w: quiz session is complete", apperrors.ErrConflict)
	}
	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}

	isCorrect, attemptNumber, err := session.Grade(question)
	if err != nil {
		return nil, mapSessionError(err)
	}

	pointsEarned := 0
	if isCorrect {
		pointsEarned = question.Points
	}

	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	response := &entity.UserResponse{
		UserID:          userID,
		QuestionID:      questionID,
		CampaignID:      campaignID,
		SelectedAnswers: entity.IntArray(session.Selected),
		IsCorrect:       isCorrect,
		PointsEarned:    pointsEarned,
		AttemptNumber:   attemptNumber,
		IsTestResponse:  campaign.IsTestCampaign,
	}
	if err := s.responseRepo.Create(response); err != nil {
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	outcome := session.Resolve(question, isCorrect, s.maxAttempts)
	if err := s.saveSession(session); err != nil {
		// Ответ уже в журнале; сессия пересоберется из него при рестарте
		log.Printf("[QuizService] Не удалось сохранить сессию %s после отправки: %v", session.ID, err)
	}

	s.updateProgressCache(session, campaign)

	result := &SubmitResult{Outcome: outcome, Session: session}
	if outcome.Advanced && !outcome.SessionComplete {
		if id, ok := session.CurrentQuestionID(); ok {
			next, err := s.questionRepo.GetByID(id)
			if err != nil {
				return nil, err
			}
			result.NextQuestion = next
		}
	}

	// Завершение дневного набора администратором продвигает тестовый день;
	// на последнем дне продвижение блокируется границей
	if outcome.SessionComplete && campaign.IsTestCampaign {
		if advanced, final := s.maybeAdvanceDay(userID, campaign); advanced {
			result.DayAdvanced = true
		} else if final {
			result.FinalDayReached = true
		}
	}

	return result, nil
}

// AbandonSession удаляет живую сессию. Записанный в журнал прогресс
// не теряется.
func (s *QuizService) AbandonSession(userID, campaignID uint) error {
	return s.cache.Delete(sessionKey(userID, campaignID))
}

// todaysResponses возвращает записи журнала, созданные в текущую
// календарную дату процесса
func (s *QuizService) todaysResponses(responses []entity.UserResponse) []entity.UserResponse {
	now := s.now()
	today := make([]entity.UserResponse, 0, len(responses))
	for i := range responses {
		if sameCalendarDay(responses[i].CreatedAt, now) {
			today = append(today, responses[i])
		}
	}
	return today
}

// openQuestions возвращает ID вопросов, еще не закрытых по журналу, и время
// последнего закрытия. Вопрос закрыт, если есть верный ответ либо число
// попыток достигло лимита.
func (s *QuizService) openQuestions(questions []entity.Question, responses []entity.UserResponse) ([]uint, *time.Time) {
	attempts := make(map[uint]int)
	solved := make(map[uint]bool)
	var lastClosedAt *time.Time

	for i := range responses {
		r := &responses[i]
		attempts[r.QuestionID]++
		if r.IsCorrect {
			solved[r.QuestionID] = true
		}
		closed := r.IsCorrect || attempts[r.QuestionID] >= s.maxAttempts
		if closed && (lastClosedAt == nil || r.CreatedAt.After(*lastClosedAt)) {
			t := r.CreatedAt
			lastClosedAt = &t
		}
	}

	remaining := make([]uint, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		if solved[q.ID] || attempts[q.ID] >= s.maxAttempts {
			continue
		}
		remaining = append(remaining, q.ID)
	}
	return remaining, lastClosedAt
}

// maybeAdvanceDay продвигает тестовый день, если сессию завершил
// администратор. Возвращает (продвинут, достигнут последний день).
func (s *QuizService) maybeAdvanceDay(userID uint, campaign *entity.Campaign) (bool, bool) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil || user.Role != entity.RoleAdmin {
		return false, false
	}

	if _, err := s.campaignRepo.AdvanceTestDay(campaign.ID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			log.Printf("[QuizService] Кампания %d: достигнут последний тестовый день", campaign.ID)
			return false, true
		}
		log.Printf("[QuizService] Не удалось продвинуть тестовый день кампании %d: %v", campaign.ID, err)
		return false, false
	}

	log.Printf("[QuizService] Кампания %d: тестовый день продвинут после завершения набора", campaign.ID)
	return true, false
}

// updateProgressCache обновляет кеш-поля участия. Ошибки не фатальны:
// кеш пересчитывается утилитой сверки из журнала ответов.
func (s *QuizService) updateProgressCache(session *quizsession.Session, campaign *entity.Campaign) {
	completed := make(entity.IntArray, 0, len(session.AnsweredQuestions))
	for _, id := range session.AnsweredQuestions {
		completed = append(completed, int(id))
	}

	var currentDay *int
	if campaign.IsTestCampaign {
		d := campaign.TestDay()
		currentDay = &d
	}

	if err := s.participantRepo.UpdateProgress(session.UserID, session.CampaignID, session.TotalScore, completed, currentDay); err != nil {
		log.Printf("[QuizService] Не удалось обновить кеш прогресса user=%d campaign=%d: %v", session.UserID, session.CampaignID, err)
	}
}

func (s *QuizService) loadSession(userID, campaignID uint) *quizsession.Session {
	var session quizsession.Session
	if err := s.cache.GetJSON(sessionKey(userID, campaignID), &session); err != nil {
		return nil
	}
	return &session
}

func (s *QuizService) saveSession(session *quizsession.Session) error {
	return s.cache.SetJSON(sessionKey(session.UserID, session.CampaignID), session, s.sessionTTL)
}

// mapSessionError переводит ошибки машины состояний в доменные
func mapSessionError(err error) error {
	switch {
	case errors.Is(err, quizsession.ErrSelectionLocked),
		errors.Is(err, quizsession.ErrSessionComplete):
		return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	case errors.Is(err, quizsession.ErrEmptySelection),
		errors.Is(err, quizsession.ErrInvalidOption):
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	default:
		return err
	}
}

func sameDay(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func mustCurrentQuestion(session *quizsession.Session) uint {
	id, _ := session.CurrentQuestionID()
	return id
}
