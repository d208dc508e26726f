package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/database"
	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/service"
	"github.com/Cerega32/Bucket-List/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated demo user.
const DemoPassword = "password123"

// DemoOptions controls generated activity.
type DemoOptions struct {
	Users int
	// MaxGoalsPerUser caps how many catalog goals each user adds.
	MaxGoalsPerUser int
	// CommentChance is the probability, in percent, that a completed goal
	// gets a comment.
	CommentChance int
	// RandSeed makes a run reproducible; zero picks a random seed.
	RandSeed int64
}

// DemoStats summarizes a Demo run.
type DemoStats struct {
	Users       int
	Completions int
	Lists       int
	Comments    int
}

// Demo registers fake users and drives them through the same services the
// API uses, so experience, levels and achievements stay consistent.
func Demo(ctx context.Context, db *gorm.DB, opts DemoOptions) (DemoStats, error) {
	var stats DemoStats
	if opts.MaxGoalsPerUser <= 0 {
		opts.MaxGoalsPerUser = 5
	}

	var goalCodes, listCodes []string
	if err := db.WithContext(ctx).Model(&models.Goal{}).Order("id").Pluck("code", &goalCodes).Error; err != nil {
		return stats, err
	}
	if err := db.WithContext(ctx).Model(&models.GoalList{}).Order("id").Pluck("code", &listCodes).Error; err != nil {
		return stats, err
	}
	if len(goalCodes) == 0 {
		return stats, fmt.Errorf("catalog is empty, load it first")
	}

	store := repository.NewStore(db)
	noCache := cache.New(nil)
	quiet := notifications.NewNotifier(nil)
	blobs := storage.NewMemoryStorage("/uploads")
	ledger := service.NewExperienceLedger(service.NewAchievementEvaluator(nil))
	users := service.NewUserService(store, noCache, blobs, 0)
	completion := service.NewCompletionService(store, ledger, quiet, noCache)
	comments := service.NewCommentService(store, ledger, quiet, noCache, blobs, 0)

	f := gofakeit.New(opts.RandSeed)
	for i := 0; i < opts.Users; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(f.FirstName()), i+1)
		user, err := users.Register(ctx, service.RegisterInput{
			Username: username,
			Email:    username + "@example.com",
			Password: DemoPassword,
		})
		if err != nil {
			if models.IsCode(err, models.CodeConflict) {
				continue
			}
			return stats, fmt.Errorf("register %s: %w", username, err)
		}
		stats.Users++

		bio := f.Sentence(8)
		first, last := f.FirstName(), f.LastName()
		if _, err := users.UpdateProfile(ctx, service.UpdateProfileInput{
			UserID:    user.ID,
			FirstName: &first,
			LastName:  &last,
			Bio:       &bio,
		}); err != nil {
			return stats, err
		}

		picked := pick(f, goalCodes, f.Number(1, opts.MaxGoalsPerUser))
		for _, code := range picked {
			if _, err := completion.AddGoal(ctx, user.ID, code); err != nil {
				return stats, fmt.Errorf("add goal %s: %w", code, err)
			}
			if !f.Bool() {
				continue
			}
			if _, err := completion.MarkGoal(ctx, user.ID, code, true); err != nil {
				return stats, fmt.Errorf("mark goal %s: %w", code, err)
			}
			stats.Completions++

			if f.Number(1, 100) > opts.CommentChance {
				continue
			}
			complexity := []models.Complexity{models.ComplexityEasy, models.ComplexityMedium, models.ComplexityHard}[f.Number(0, 2)]
			if _, err := comments.CreateComment(ctx, service.CreateCommentInput{
				UserID:     user.ID,
				GoalCode:   code,
				Text:       f.Paragraph(1, 2, 12, " "),
				Complexity: &complexity,
			}); err != nil {
				return stats, fmt.Errorf("comment on %s: %w", code, err)
			}
			stats.Comments++
		}

		if len(listCodes) > 0 && f.Number(1, 3) == 1 {
			code := listCodes[f.Number(0, len(listCodes)-1)]
			if _, err := completion.AddList(ctx, user.ID, code); err != nil && !models.IsCode(err, models.CodePreconditionFailed) {
				return stats, fmt.Errorf("add list %s: %w", code, err)
			}
			if _, err := completion.MarkAllInList(ctx, user.ID, code); err != nil {
				return stats, fmt.Errorf("complete list %s: %w", code, err)
			}
			stats.Lists++
		}
	}

	middleware.Logger.InfoContext(ctx, "demo data generated",
		slog.Int("users", stats.Users),
		slog.Int("completions", stats.Completions),
		slog.Int("lists", stats.Lists),
		slog.Int("comments", stats.Comments),
	)
	return stats, nil
}

// pick returns n distinct values from codes in random order.
func pick(f *gofakeit.Faker, codes []string, n int) []string {
	shuffled := append([]string(nil), codes...)
	f.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// Reset deletes every row of every persistent table, children first.
func Reset(ctx context.Context, db *gorm.DB) error {
	all := database.PersistentModels()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(all) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
				return fmt.Errorf("reset %T: %w", all[i], err)
			}
		}
		return nil
	})
}
