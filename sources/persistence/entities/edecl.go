package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type (
	User struct {
		ID                     uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		Email                  string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
		Username               *string        `gorm:"size:255" json:"username"`
		FavCoins               pq.StringArray `gorm:"type:text[];not null;default:ARRAY[]::text[]" json:"fav_coins"`
		InvestorTypes          pq.StringArray `gorm:"type:text[];not null;default:ARRAY[]::text[]" json:"investor_types"`
		ContentTypes           pq.StringArray `gorm:"type:text[];not null;default:ARRAY[]::text[]" json:"content_types"`
		HasCompletedOnboarding *bool          `gorm:"not null;default:false" json:"has_completed_onboarding"`
		CreatedAt              time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

		Votes []Vote `gorm:"foreignKey:UserID;references:ID" json:"votes"`
	}

	Vote struct {
		ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
		Type            string    `gorm:"size:20;not null" json:"type"`
		Polarity        string    `gorm:"size:10;not null" json:"polarity"`
		ContentID       *string   `gorm:"size:255" json:"content_id"`
		ContentName     *string   `gorm:"size:255" json:"content_name"`
		ContentTitle    *string   `gorm:"size:512" json:"content_title"`
		ContentText     *string   `gorm:"type:text" json:"content_text"`
		ContentImageURL *string   `gorm:"size:1024" json:"content_image_url"`
		CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	}

	DailyContent struct {
		ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_content_key" json:"user_id"`
		Date      string    `gorm:"size:10;not null;uniqueIndex:idx_daily_content_key" json:"date"`
		Kind      string    `gorm:"size:20;not null;default:'insight';uniqueIndex:idx_daily_content_key" json:"kind"`
		Insight   string    `gorm:"type:text;not null" json:"insight"`
		Model     *string   `gorm:"size:255" json:"model"`
		CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
		UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	}

	Usage struct {
		ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
		Task      string          `gorm:"size:50;not null" json:"task"`
		Model     string          `gorm:"size:255;not null" json:"model"`
		Tokens    int             `gorm:"not null" json:"tokens"`
		Cost      decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"cost"`
		CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	}
)
