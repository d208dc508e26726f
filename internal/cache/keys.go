package cache

import (
	"fmt"
	"time"
)

const (
	NamespaceLeaderboard = "leaderboard"
	NamespaceCategories  = "categories"
)

const (
	UserTTL       = 5 * time.Minute
	CategoriesTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// LeaderboardKey identifies one leaderboard snapshot within a generation.
func LeaderboardKey(version int64, limit int, window time.Duration) string {
	return fmt.Sprintf("leaderboard:v%d:limit:%d:window:%d", version, limit, int64(window/time.Second))
}

func CategoriesKey(version int64) string {
	return fmt.Sprintf("categories:v%d", version)
}
