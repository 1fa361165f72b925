package repository

import (
	"context"
	"errors"
	"time"

	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func (x *UsersRepository) GetByID(logger *tracing.Logger, userID uuid.UUID) (*entities.User, error) {
	defer tracing.ProfilePoint(logger, "Users get by id completed", "repository.users.get.by.id", tracing.UserId, userID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var user entities.User
	err := x.db.WithContext(ctx).
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.W("User not found when expected", tracing.UserId, userID)
			return nil, ErrUserNotFound
		}
		logger.E("Failed to get user", tracing.InnerError, err)
		return nil, err
	}

	return &user, nil
}

func (x *UsersRepository) GetByEmail(logger *tracing.Logger, email string) (*entities.User, error) {
	defer tracing.ProfilePoint(logger, "Users get by email completed", "repository.users.get.by.email")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var user entities.User
	err := x.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.E("Failed to get user by email", tracing.InnerError, err)
		return nil, err
	}

	return &user, nil
}

func (x *UsersRepository) UpdatePreferences(logger *tracing.Logger, userID uuid.UUID, favCoins, investorTypes, contentTypes []string) error {
	defer tracing.ProfilePoint(logger, "Users update preferences completed", "repository.users.update.preferences", tracing.UserId, userID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"fav_coins":      pq.StringArray(favCoins),
		"investor_types": pq.StringArray(investorTypes),
		"content_types":  pq.StringArray(contentTypes),
	})
	if result.Error != nil {
		logger.E("Failed to update preferences", tracing.InnerError, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	logger.I("Preferences updated", tracing.UserId, userID)
	return nil
}
