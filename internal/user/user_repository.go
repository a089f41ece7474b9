package user

import (
	"context"
	"errors"
	"fmt"

	"messagely/internal/common"
	"messagely/internal/dbmysql"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// userRepository is the gorm-backed credential store.
type userRepository struct {
	db     *gorm.DB
	hasher *common.PasswordHasher
}

func NewUserRepository(db *gorm.DB, hasher *common.PasswordHasher) common.UserRepository {
	return &userRepository{db: db, hasher: hasher}
}

func (r *userRepository) Register(ctx context.Context, params common.RegisterParams) (*common.RegisteredUser, error) {
	hashed, err := r.hasher.Hash(params.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, common.BadRequest("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := dbmysql.Now()
	user := &dbmysql.User{
		Username:    params.Username,
		Password:    hashed,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Phone:       params.Phone,
		JoinAt:      now,
		LastLoginAt: &now,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if dbmysql.IsDuplicateKey(err) {
			logrus.WithField("username", params.Username).Warn("Registration rejected: username taken")
			return nil, common.Conflict("Username %s already exists", params.Username)
		}
		return nil, fmt.Errorf("create user %s: %w", params.Username, err)
	}

	return &common.RegisteredUser{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}, nil
}

// Authenticate never distinguishes "no such user" from "wrong password".
func (r *userRepository) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).
		Select("username", "password").
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up credentials for %s: %w", username, err)
	}
	return r.hasher.Matches(user.Password, password), nil
}

func (r *userRepository) UpdateLoginTimestamp(ctx context.Context, username string) error {
	result := r.db.WithContext(ctx).
		Model(&dbmysql.User{}).
		Where("username = ?", username).
		Update("last_login_at", dbmysql.Now())
	if result.Error != nil {
		return fmt.Errorf("update login timestamp for %s: %w", username, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.NotFound("No such user: %s", username)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, username string) (*common.UserProfile, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("No such user: %s", username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}

	return &common.UserProfile{
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		JoinAt:      user.JoinAt,
		LastLoginAt: user.LastLoginAt,
	}, nil
}

func (r *userRepository) All(ctx context.Context) ([]common.UserSummary, error) {
	users := make([]common.UserSummary, 0)
	err := r.db.WithContext(ctx).
		Model(&dbmysql.User{}).
		Select("username", "first_name", "last_name").
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
