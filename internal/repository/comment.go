package repository

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Comment sort orders.
const (
	CommentSortDate  = "date"
	CommentSortLikes = "likes"
)

// CommentQuery selects a page of a goal's comments as seen by ViewerID
// (zero for anonymous viewers).
type CommentQuery struct {
	GoalID   uint
	ViewerID uint
	Sort     string
	Limit    int
	Offset   int
}

// CommentRepository defines persistence operations for comments and reactions.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// Delete removes the comment with its photos and reactions.
	Delete(ctx context.Context, id uint) error
	ListForGoal(ctx context.Context, q CommentQuery) ([]models.CommentView, int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)

	GetReaction(ctx context.Context, commentID, userID uint) (*models.CommentReaction, error)
	SetReaction(ctx context.Context, commentID, userID uint, kind models.ReactionKind) error
	DeleteReaction(ctx context.Context, commentID, userID uint) error
	Score(ctx context.Context, commentID, viewerID uint) (models.ReactionScore, error)
}

type commentRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.read.WithContext(ctx).
		Preload("Photos").
		Preload("User").
		First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentReaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) ListForGoal(ctx context.Context, q CommentQuery) ([]models.CommentView, int64, error) {
	db := r.read.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Comment{}).Where("goal_id = ?", q.GoalID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	query := db.Where("goal_id = ?", q.GoalID).
		Preload("User").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	if q.Sort == CommentSortLikes {
		query = query.Order("(SELECT COUNT(*) FROM comment_reactions cr WHERE cr.comment_id = comments.id AND cr.kind = 'like') DESC")
	}
	var comments []models.Comment
	if err := query.Order("comments.created_at DESC, comments.id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if len(comments) == 0 {
		return []models.CommentView{}, total, nil
	}

	ids := make([]uint, 0, len(comments))
	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		authorIDs = append(authorIDs, c.UserID)
	}

	var counts []struct {
		CommentID uint
		Kind      models.ReactionKind
		Total     int64
	}
	if err := db.Model(&models.CommentReaction{}).
		Select("comment_id, kind, COUNT(*) AS total").
		Where("comment_id IN ?", ids).
		Group("comment_id, kind").
		Scan(&counts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	viewer := map[uint]models.ReactionKind{}
	if q.ViewerID != 0 {
		var own []models.CommentReaction
		if err := db.Where("comment_id IN ? AND user_id = ?", ids, q.ViewerID).Find(&own).Error; err != nil {
			return nil, 0, models.NewInternalError(err)
		}
		for _, reaction := range own {
			viewer[reaction.CommentID] = reaction.Kind
		}
	}

	var completed []struct {
		UserID uint
		Total  int64
	}
	if err := db.Model(&models.GoalCompletion{}).
		Select("user_id, COUNT(*) AS total").
		Where("user_id IN ?", authorIDs).
		Group("user_id").
		Scan(&completed).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	completedBy := make(map[uint]int64, len(completed))
	for _, c := range completed {
		completedBy[c.UserID] = c.Total
	}

	views := make([]models.CommentView, 0, len(comments))
	byID := make(map[uint]int, len(comments))
	for i, c := range comments {
		view := models.CommentView{
			ID:                   c.ID,
			GoalID:               c.GoalID,
			Text:                 c.Text,
			Complexity:           c.Complexity,
			AuthorCompletedGoals: completedBy[c.UserID],
			Photos:               c.Photos,
			HasLiked:             viewer[c.ID] == models.ReactionLike,
			HasDisliked:          viewer[c.ID] == models.ReactionDislike,
			CreatedAt:            c.CreatedAt,
		}
		if c.User != nil {
			view.Author = c.User.Summary()
		}
		if view.Photos == nil {
			view.Photos = []models.CommentPhoto{}
		}
		views = append(views, view)
		byID[c.ID] = i
	}
	for _, row := range counts {
		i := byID[row.CommentID]
		switch row.Kind {
		case models.ReactionLike:
			views[i].LikesCount = row.Total
		case models.ReactionDislike:
			views[i].DislikesCount = row.Total
		}
	}
	return views, total, nil
}

func (r *commentRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.read.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// GetReaction returns nil when the user has not reacted.
func (r *commentRepository) GetReaction(ctx context.Context, commentID, userID uint) (*models.CommentReaction, error) {
	var reactions []models.CommentReaction
	if err := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Limit(1).
		Find(&reactions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(reactions) == 0 {
		return nil, nil
	}
	return &reactions[0], nil
}

func (r *commentRepository) SetReaction(ctx context.Context, commentID, userID uint, kind models.ReactionKind) error {
	reaction := models.CommentReaction{CommentID: commentID, UserID: userID, Kind: kind}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind"}),
	}).Create(&reaction).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) DeleteReaction(ctx context.Context, commentID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentReaction{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Score(ctx context.Context, commentID, viewerID uint) (models.ReactionScore, error) {
	var score models.ReactionScore
	var counts []struct {
		Kind  models.ReactionKind
		Total int64
	}
	if err := r.db.WithContext(ctx).Model(&models.CommentReaction{}).
		Select("kind, COUNT(*) AS total").
		Where("comment_id = ?", commentID).
		Group("kind").
		Scan(&counts).Error; err != nil {
		return score, models.NewInternalError(err)
	}
	for _, row := range counts {
		switch row.Kind {
		case models.ReactionLike:
			score.LikesCount = row.Total
		case models.ReactionDislike:
			score.DislikesCount = row.Total
		}
	}

	if viewerID == 0 {
		return score, nil
	}
	own, err := r.GetReaction(ctx, commentID, viewerID)
	if err != nil {
		return score, err
	}
	if own != nil {
		score.HasLiked = own.Kind == models.ReactionLike
		score.HasDisliked = own.Kind == models.ReactionDislike
	}
	return score, nil
}
