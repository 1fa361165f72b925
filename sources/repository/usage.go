package repository

import (
	"context"
	"time"

	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (x *UsageRepository) SaveUsage(logger *tracing.Logger, userID uuid.UUID, task, model string, tokens int, cost decimal.Decimal) error {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	usage := &entities.Usage{
		UserID: userID,
		Task:   task,
		Model:  model,
		Tokens: tokens,
		Cost:   cost,
	}

	if err := x.db.WithContext(ctx).Create(usage).Error; err != nil {
		logger.E("Failed to save usage", tracing.InnerError, err)
		return err
	}

	logger.I("Usage saved", tracing.AiTask, task, tracing.AiModel, model, tracing.AiTokens, tokens, tracing.AiCost, cost.String())
	return nil
}

func (x *UsageRepository) GetTotalCost(logger *tracing.Logger) (decimal.Decimal, error) {
	defer tracing.ProfilePoint(logger, "Usage get total cost completed", "repository.usage.get.total.cost")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var totalCost *decimal.Decimal
	err := x.db.WithContext(ctx).Model(&entities.Usage{}).
		Select("SUM(cost)").Row().Scan(&totalCost)
	if err != nil {
		logger.E("Failed to get total cost", tracing.InnerError, err)
		return decimal.Zero, err
	}

	if totalCost == nil {
		return decimal.Zero, nil
	}

	return *totalCost, nil
}

func (x *UsageRepository) GetTotalCostSince(logger *tracing.Logger, since time.Time) (decimal.Decimal, error) {
	defer tracing.ProfilePoint(logger, "Usage get total cost since completed", "repository.usage.get.total.cost.since")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var totalCost *decimal.Decimal
	err := x.db.WithContext(ctx).Model(&entities.Usage{}).
		Where("created_at >= ?", since).
		Select("SUM(cost)").Row().Scan(&totalCost)
	if err != nil {
		logger.E("Failed to get total cost since", tracing.InnerError, err)
		return decimal.Zero, err
	}

	if totalCost == nil {
		return decimal.Zero, nil
	}

	return *totalCost, nil
}
