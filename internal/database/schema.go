package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iliyamo/table-reservation/internal/config"
)

// Table definitions used only for schema migration. The API talks to these
// tables through database/sql in the repository package.

type UserTable struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:100;not null"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uq_users_email"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)"`
	UpdatedAt    time.Time `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)"`
}

func (UserTable) TableName() string { return "users" }

type RefreshTokenTable struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	UserID    uint64     `gorm:"not null;index:idx_refresh_tokens_user"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex:uq_refresh_tokens_hash"`
	ExpiresAt time.Time  `gorm:"type:datetime(3);not null"`
	RevokedAt *time.Time `gorm:"type:datetime(3)"`
	CreatedAt time.Time  `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)"`
	User      UserTable  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (RefreshTokenTable) TableName() string { return "refresh_tokens" }

type RestaurantTable struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:150;not null;uniqueIndex:uq_restaurants_name"`
	Cuisine      string    `gorm:"size:80;not null;index:idx_restaurants_cuisine"`
	Rating       float64   `gorm:"type:decimal(2,1);not null;default:0"`
	PriceRange   string    `gorm:"size:4;not null;index:idx_restaurants_price"`
	Address      string    `gorm:"size:255;not null"`
	Description  *string   `gorm:"type:text"`
	Image        *string   `gorm:"size:512"`
	Phone        *string   `gorm:"size:40"`
	Website      *string   `gorm:"size:255"`
	OpeningHours *string   `gorm:"size:100"`
	Featured     bool      `gorm:"not null;default:false;index:idx_restaurants_featured"`
	Gallery      *string   `gorm:"type:json"`
	Menu         *string   `gorm:"type:json"`
	Amenities    *string   `gorm:"type:json"`
	Reviews      *string   `gorm:"type:json"`
	CreatedAt    time.Time `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)"`
	UpdatedAt    time.Time `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)"`
}

func (RestaurantTable) TableName() string { return "restaurants" }

// BookingTable carries the slot index used by the capacity count.
type BookingTable struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	UserID          uint64          `gorm:"not null;index:idx_bookings_user"`
	RestaurantID    uint64          `gorm:"not null;index:idx_bookings_slot,priority:1"`
	RestaurantName  string          `gorm:"size:150;not null"`
	BookingDate     string          `gorm:"type:date;not null;index:idx_bookings_slot,priority:2"`
	BookingTime     string          `gorm:"type:time;not null;index:idx_bookings_slot,priority:3"`
	Guests          int             `gorm:"not null"`
	SpecialRequests *string         `gorm:"type:text"`
	TotalAmount     int64           `gorm:"not null"`
	Status          string          `gorm:"size:16;not null;default:confirmed;index:idx_bookings_slot,priority:4"`
	PaymentRef      *string         `gorm:"size:255"`
	CreatedAt       time.Time       `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)"`
	UpdatedAt       time.Time       `gorm:"type:datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)"`
	User            UserTable       `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Restaurant      RestaurantTable `gorm:"foreignKey:RestaurantID;constraint:OnDelete:RESTRICT"`
}

func (BookingTable) TableName() string { return "bookings" }

// Tables lists every table in dependency order.
func Tables() []any {
	return []any{&UserTable{}, &RefreshTokenTable{}, &RestaurantTable{}, &BookingTable{}}
}

// OpenGorm opens a gorm handle for migration and seeding.
func OpenGorm(cfg config.DBConfig, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
