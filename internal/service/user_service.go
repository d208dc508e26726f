package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/storage"
	"github.com/Cerega32/Bucket-List/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const maxBioLen = 500

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID    uint
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
}

type UserService struct {
	store  *repository.Store
	cache  *cache.Cache
	images uploader
}

func NewUserService(store *repository.Store, c *cache.Cache, st storage.Storage, maxUploadBytes int64) *UserService {
	return &UserService{store: store, cache: c, images: uploader{storage: st, maxBytes: maxUploadBytes}}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.store.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate accepts either an email or a username as login.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.Users.GetByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = s.store.Users.GetByUsername(ctx, login)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetUser returns a user with derived level fields, served from the cache
// when possible.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.cache.Aside(ctx, "user", cache.UserKey(id), &user, cache.UserTTL, func() error {
		loaded, err := s.store.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.RefreshProgression()
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = *in.Bio
	}

	if err := s.store.Users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.UserKey(user.ID))
	return user, nil
}

// ChangePassword requires the current password.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return models.NewValidationError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.store.Users.UpdatePassword(ctx, userID, string(hash))
}

// SetAvatar replaces the avatar image and deletes the previous blob.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, up Upload) (*models.User, error) {
	return s.replaceImage(ctx, userID, FolderAvatars, &up, func(u *models.User) *string { return &u.Avatar })
}

// SetCover replaces the cover image and deletes the previous blob.
func (s *UserService) SetCover(ctx context.Context, userID uint, up Upload) (*models.User, error) {
	return s.replaceImage(ctx, userID, FolderCovers, &up, func(u *models.User) *string { return &u.Cover })
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) (*models.User, error) {
	return s.replaceImage(ctx, userID, FolderAvatars, nil, func(u *models.User) *string { return &u.Avatar })
}

func (s *UserService) replaceImage(ctx context.Context, userID uint, folder string, up *Upload, field func(*models.User) *string) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	target := field(user)
	previous := *target

	var key string
	if up != nil {
		var url string
		if key, url, err = s.images.put(ctx, folder, *up); err != nil {
			return nil, err
		}
		*target = url
	} else {
		if previous == "" {
			return user, nil
		}
		*target = ""
	}

	if err := s.store.Users.UpdateProfile(ctx, user); err != nil {
		s.images.remove(ctx, key)
		return nil, err
	}
	s.images.removeURL(ctx, previous)
	s.cache.Invalidate(ctx, cache.UserKey(userID))
	return user, nil
}
