package service

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/repository"
)

const (
	leaderboardCacheKey = "leaderboard:global"
	leaderboardCacheTTL = 30 * time.Second
)

// LeaderboardEntry - строка лидерборда
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"user_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	TotalScore int    `json:"total_score"`
}

// LeaderboardService собирает сводный лидерборд по всем кампаниям.
// Счет каждого пользователя - свертка журнала ответов; кеш-поля участия
// не участвуют в расчете.
type LeaderboardService struct {
	responseRepo repository.ResponseRepository
	userRepo     repository.UserRepository
	cache        repository.CacheRepository
}

// NewLeaderboardService создает новый сервис лидерборда
func NewLeaderboardService(
	responseRepo repository.ResponseRepository,
	userRepo repository.UserRepository,
	cache repository.CacheRepository,
) (*LeaderboardService, error) {
	if responseRepo == nil {
		return nil, fmt.Errorf("ResponseRepository is required for LeaderboardService")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for LeaderboardService")
	}

	return &LeaderboardService{
		responseRepo: responseRepo,
		userRepo:     userRepo,
		cache:        cache,
	}, nil
}

// GetLeaderboard возвращает лидерборд, отсортированный по счету.
// Записи журнала с неизвестным user_id (профиль удален) отбрасываются
// с записью в лог. Ранги начинаются с 1; равные счета сохраняют порядок
// первого появления в журнале.
func (s *LeaderboardService) GetLeaderboard() ([]LeaderboardEntry, error) {
	if s.cache != nil {
		var cached []LeaderboardEntry
		if err := s.cache.GetJSON(leaderboardCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	responses, err := s.responseRepo.GetAll()
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, err
	}
	known := make(map[uint]int, len(users))
	for i := range users {
		known[users[i].ID] = i
	}

	// Свертка журнала: суммарный счет на пользователя в порядке
	// первого появления
	scores := make(map[uint]int)
	order := make([]uint, 0)
	dropped := 0
	for i := range responses {
		r := &responses[i]
		if _, ok := known[r.UserID]; !ok {
			dropped++
			continue
		}
		if _, seen := scores[r.UserID]; !seen {
			order = append(order, r.UserID)
		}
		scores[r.UserID] += r.PointsEarned
	}
	if dropped > 0 {
		log.Printf("[LeaderboardService] Отброшено %d записей журнала с неизвестными пользователями", dropped)
	}

	entries := make([]LeaderboardEntry, 0, len(order))
	for _, userID := range order {
		u := &users[known[userID]]
		entries = append(entries, LeaderboardEntry{
			UserID:     userID,
			Name:       u.FullName(),
			Department: u.Department,
			TotalScore: scores[userID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(leaderboardCacheKey, entries, leaderboardCacheTTL); err != nil {
			log.Printf("[LeaderboardService] Не удалось закешировать лидерборд: %v", err)
		}
	}

	return entries, nil
}

// Invalidate сбрасывает кеш лидерборда
func (s *LeaderboardService) Invalidate() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(leaderboardCacheKey); err != nil {
		log.Printf("[LeaderboardService] Не удалось сбросить кеш лидерборда: %v", err)
	}
}
