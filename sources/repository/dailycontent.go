package repository

import (
	"context"
	"errors"
	"time"

	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyContentRepository struct {
	db *gorm.DB
}

func NewDailyContentRepository(db *gorm.DB) *DailyContentRepository {
	return &DailyContentRepository{db: db}
}

// GetInsight returns the stored insight for the given user and day.
// Absence is a normal condition and yields (nil, nil).
func (x *DailyContentRepository) GetInsight(logger *tracing.Logger, userID uuid.UUID, dateKey string) (*entities.DailyContent, error) {
	defer tracing.ProfilePoint(logger, "Daily content get insight completed", "repository.dailycontent.get.insight", tracing.UserId, userID, tracing.DateKey, dateKey)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var content entities.DailyContent
	err := x.db.WithContext(ctx).
		First(&content, "user_id = ? AND date = ? AND kind = ?", userID, dateKey, entities.DailyContentKindInsight).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.E("Failed to get daily insight", tracing.InnerError, err)
		return nil, err
	}

	return &content, nil
}

// UpsertInsight writes the day's insight atomically. Concurrent writers for the
// same (user, day) key race last-write-wins; created_at survives the first insert.
func (x *DailyContentRepository) UpsertInsight(logger *tracing.Logger, userID uuid.UUID, dateKey, insight string, model *string) error {
	defer tracing.ProfilePoint(logger, "Daily content upsert insight completed", "repository.dailycontent.upsert.insight", tracing.UserId, userID, tracing.DateKey, dateKey)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	now := time.Now()
	content := &entities.DailyContent{
		UserID:    userID,
		Date:      dateKey,
		Kind:      entities.DailyContentKindInsight,
		Insight:   insight,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := x.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "kind"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"insight":    insight,
			"model":      model,
			"updated_at": now,
		}),
	}).Create(content).Error
	if err != nil {
		logger.E("Failed to upsert daily insight", tracing.InnerError, err)
		return err
	}

	logger.I("Daily insight stored", tracing.UserId, userID, tracing.DateKey, dateKey)
	return nil
}
