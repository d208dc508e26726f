package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/storage"
)

const (
	maxCommentLen       = 10000
	defaultCommentLimit = 10
	maxCommentLimit     = 50
)

type CreateCommentInput struct {
	UserID     uint
	GoalCode   string
	Text       string
	Complexity *models.Complexity
	Photos     []Upload
}

type DeleteCommentInput struct {
	UserID    uint
	IsAdmin   bool
	CommentID uint
}

type ListCommentsInput struct {
	GoalCode string
	ViewerID uint
	Sort     string
	Limit    int
	Offset   int
}

// CommentPage is one page of a goal's comments.
type CommentPage struct {
	Comments []models.CommentView `json:"data"`
	Total    int64                `json:"total"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

// CreatedComment is a new comment and what posting it earned.
type CreatedComment struct {
	Comment  models.CommentView `json:"comment"`
	Progress Progress           `json:"progress"`
}

type CommentService struct {
	store    *repository.Store
	ledger   *ExperienceLedger
	notifier *notifications.Notifier
	cache    *cache.Cache
	photos   uploader
}

func NewCommentService(
	store *repository.Store,
	ledger *ExperienceLedger,
	notifier *notifications.Notifier,
	c *cache.Cache,
	st storage.Storage,
	maxUploadBytes int64,
) *CommentService {
	return &CommentService{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		cache:    c,
		photos:   uploader{storage: st, maxBytes: maxUploadBytes},
	}
}

func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (*CommentPage, error) {
	goal, err := s.store.Goals.GetByCode(ctx, in.GoalCode)
	if err != nil {
		return nil, err
	}
	if in.Sort != repository.CommentSortLikes {
		in.Sort = repository.CommentSortDate
	}
	if in.Limit <= 0 {
		in.Limit = defaultCommentLimit
	}
	if in.Limit > maxCommentLimit {
		in.Limit = maxCommentLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	views, total, err := s.store.Comments.ListForGoal(ctx, repository.CommentQuery{
		GoalID:   goal.ID,
		ViewerID: in.ViewerID,
		Sort:     in.Sort,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &CommentPage{Comments: views, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

// CreateComment stores the photos, then writes the comment and pays
// ADD_COMMENT in one transaction. Photos are removed again if the
// transaction fails.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*CreatedComment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if in.Complexity != nil && !in.Complexity.Valid() {
		return nil, models.NewValidationError("Complexity must be easy, medium or hard")
	}
	if len(in.Photos) > MaxCommentPhotos {
		return nil, models.NewValidationError("Too many photos (max 10)")
	}
	for _, p := range in.Photos {
		if err := s.photos.validate(p); err != nil {
			return nil, err
		}
	}

	goal, err := s.store.Goals.GetByCode(ctx, in.GoalCode)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		GoalID:     goal.ID,
		UserID:     in.UserID,
		Text:       text,
		Complexity: in.Complexity,
	}
	var keys []string
	for _, p := range in.Photos {
		key, url, err := s.photos.put(ctx, FolderCommentPhotos, p)
		if err != nil {
			s.removeKeys(ctx, keys)
			return nil, err
		}
		keys = append(keys, key)
		comment.Photos = append(comment.Photos, models.CommentPhoto{URL: url, Key: key})
	}

	fx := newEffects(in.UserID)
	var author *models.User
	var progress *Progress
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if author, err = tx.Users.GetByIDForUpdate(ctx, in.UserID); err != nil {
			return err
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		change, err := s.ledger.Apply(ctx, tx, in.UserID, progression.ActionAddComment)
		if err != nil {
			return err
		}
		fx.record(change)
		progress, err = fx.progress(ctx, tx)
		return err
	})
	if err != nil {
		s.removeKeys(ctx, keys)
		return nil, asAppError(ctx, "create comment", err)
	}

	s.notifier.PublishAll(ctx, fx.events)
	s.cache.Invalidate(ctx, cache.UserKey(in.UserID))
	s.cache.BumpVersion(ctx, cache.NamespaceLeaderboard)

	photos := comment.Photos
	if photos == nil {
		photos = []models.CommentPhoto{}
	}
	completed, err := s.store.Memberships.CountCompletedGoals(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	author.Experience = progress.Experience
	return &CreatedComment{
		Comment: models.CommentView{
			ID:                   comment.ID,
			GoalID:               comment.GoalID,
			Text:                 comment.Text,
			Complexity:           comment.Complexity,
			Author:               author.Summary(),
			AuthorCompletedGoals: completed,
			Photos:               photos,
			CreatedAt:            comment.CreatedAt,
		},
		Progress: *progress,
	}, nil
}

// DeleteComment removes a comment the caller owns (or any comment, for
// admins), revokes the ADD_COMMENT reward from the author and deletes the
// photo blobs after commit.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.store.Comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.UserID != in.UserID && !in.IsAdmin {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByIDForUpdate(ctx, comment.UserID); err != nil {
			return err
		}
		if err := tx.Comments.Delete(ctx, comment.ID); err != nil {
			return err
		}
		_, err := s.ledger.Revoke(ctx, tx, comment.UserID, progression.ActionAddComment)
		return err
	})
	if err != nil {
		return asAppError(ctx, "delete comment", err)
	}

	for _, p := range comment.Photos {
		if p.Key != "" {
			s.photos.remove(ctx, p.Key)
		} else {
			s.photos.removeURL(ctx, p.URL)
		}
	}
	s.cache.Invalidate(ctx, cache.UserKey(comment.UserID))
	s.cache.BumpVersion(ctx, cache.NamespaceLeaderboard)
	return nil
}

// React toggles the caller's reaction. Repeating the current reaction
// removes it; the opposite reaction replaces it.
func (s *CommentService) React(ctx context.Context, commentID, userID uint, like bool) (*models.ReactionScore, error) {
	if _, err := s.store.Comments.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	kind := models.ReactionDislike
	if like {
		kind = models.ReactionLike
	}

	var score models.ReactionScore
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Comments.GetReaction(ctx, commentID, userID)
		if err != nil {
			return err
		}
		if current != nil && current.Kind == kind {
			err = tx.Comments.DeleteReaction(ctx, commentID, userID)
		} else {
			err = tx.Comments.SetReaction(ctx, commentID, userID, kind)
		}
		if err != nil {
			return err
		}
		score, err = tx.Comments.Score(ctx, commentID, userID)
		return err
	})
	if err != nil {
		return nil, asAppError(ctx, "react to comment", err)
	}
	return &score, nil
}

func (s *CommentService) removeKeys(ctx context.Context, keys []string) {
	for _, k := range keys {
		s.photos.remove(ctx, k)
	}
}
