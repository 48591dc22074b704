package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/notify"
)

type UserService struct {
	db      *gorm.DB
	outbox  *notify.Outbox
	baseURL string
}

func NewUserService(db *gorm.DB, outbox *notify.Outbox, baseURL string) *UserService {
	return &UserService{db: db, outbox: outbox, baseURL: strings.TrimRight(baseURL, "/")}
}

// Register creates an inactive account with its profile and queues the
// activation email.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &models.User{
		Username:        strings.TrimSpace(req.Username),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Password:        string(hashed),
		Phone:           strings.TrimSpace(req.Phone),
		Avatar:          req.Avatar,
		CanCreatePost:   true,
		ActivationToken: uuid.NewString(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", user.Username, user.Email).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}

		if err := tx.Create(user).Error; err != nil {
			if apperrors.IsDuplicate(err) {
				return ErrUserExists
			}
			return err
		}

		nickname, err := nicknameFromEmail(tx, user.Email)
		if err != nil {
			return err
		}
		user.Profile = &models.Profile{UserID: user.ID, Nickname: nickname}
		if err := tx.Create(user.Profile).Error; err != nil {
			return err
		}

		msg, err := notify.Activation(s.baseURL, user.Username, user.ActivationToken)
		if err != nil {
			return err
		}
		_, err = s.outbox.Enqueue(tx, models.ChannelEmail, user.Email, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// nicknameFromEmail uses the local part of the address, adding _1, _2,
// ... when another profile already has it.
func nicknameFromEmail(tx *gorm.DB, email string) (string, error) {
	base := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		base = email[:at]
	}

	candidate := base
	for n := 1; ; n++ {
		var count int64
		if err := tx.Model(&models.Profile{}).Where("nickname = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

// Activate enables the account owning token. Tokens are single use.
func (s *UserService) Activate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidActivation
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("activation_token = ?", token).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidActivation
		}
		if err != nil {
			return err
		}
		user.IsActive = true
		user.ActivationToken = ""
		return tx.Model(&user).Select("is_active", "activation_token").Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks the password of an active account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the bio and avatar. Nil fields are left alone.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, bio, avatar *string) (*models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if bio != nil {
			res := tx.Model(&models.Profile{}).Where("user_id = ?", userID).Update("bio", *bio)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}
		if avatar != nil {
			return tx.Model(&models.User{}).Where("id = ?", userID).Update("avatar", *avatar).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
