package service

import (
	"context"
	"sort"
	"time"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/repository"
)

// Leaderboard bounds.
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	DefaultLeaderboardDays  = 7
	MaxLeaderboardDays      = 365
)

// LeaderEntry is one ranked user.
type LeaderEntry struct {
	User             models.UserSummary `json:"user"`
	GoalsCompleted   int64              `json:"goals_completed"`
	Comments         int64              `json:"comments"`
	ExperienceEarned int64              `json:"experience_earned"`
	Rank             int                `json:"rank"`
}

// LeaderboardService ranks users by experience earned in a trailing window.
type LeaderboardService struct {
	store *repository.Store
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewLeaderboardService(store *repository.Store, c *cache.Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{
		store: store,
		cache: c,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Top returns at most n entries for the trailing window ending now. Users
// with no activity in the window are left out. Entries are ordered by
// experience earned, highest first, with ties broken by ascending user id.
func (s *LeaderboardService) Top(ctx context.Context, n int, window time.Duration) ([]LeaderEntry, error) {
	if n <= 0 {
		n = DefaultLeaderboardLimit
	}
	if n > MaxLeaderboardLimit {
		n = MaxLeaderboardLimit
	}
	if window <= 0 {
		window = DefaultLeaderboardDays * 24 * time.Hour
	}

	key := cache.LeaderboardKey(s.cache.Version(ctx, cache.NamespaceLeaderboard), n, window)

	var entries []LeaderEntry
	err := s.cache.Aside(ctx, cache.NamespaceLeaderboard, key, &entries, s.ttl, func() error {
		computed, err := s.compute(ctx, n, s.now().Add(-window))
		if err != nil {
			return err
		}
		entries = computed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *LeaderboardService) compute(ctx context.Context, n int, since time.Time) ([]LeaderEntry, error) {
	rows, err := s.store.Leaderboard.Activity(ctx, since)
	if err != nil {
		return nil, err
	}

	eligible := rows[:0]
	for _, r := range rows {
		if r.GoalsCompleted != 0 || r.Comments != 0 || r.ExperienceEarned != 0 {
			eligible = append(eligible, r)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].ExperienceEarned != eligible[j].ExperienceEarned {
			return eligible[i].ExperienceEarned > eligible[j].ExperienceEarned
		}
		return eligible[i].UserID < eligible[j].UserID
	})
	if len(eligible) > n {
		eligible = eligible[:n]
	}

	ids := make([]uint, 0, len(eligible))
	for _, r := range eligible {
		ids = append(ids, r.UserID)
	}
	users, err := s.store.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	entries := make([]LeaderEntry, 0, len(eligible))
	for _, r := range eligible {
		user, ok := byID[r.UserID]
		if !ok {
			continue
		}
		entries = append(entries, LeaderEntry{
			User:             user.Summary(),
			GoalsCompleted:   r.GoalsCompleted,
			Comments:         r.Comments,
			ExperienceEarned: r.ExperienceEarned,
			Rank:             len(entries) + 1,
		})
	}
	return entries, nil
}
