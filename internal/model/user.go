package model

import (
	"time"
)

type UserType string

const (
	UserTypeClient UserType = "client"
	UserTypeMaster UserType = "master"
	UserTypeAdmin  UserType = "admin"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeClient, UserTypeMaster, UserTypeAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64    `gorm:"primaryKey" json:"id"`
	PhoneNumber  string   `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	PasswordHash string   `gorm:"size:255" json:"-"`
	UserType     UserType `gorm:"size:10;not null;index" json:"user_type"`
	IsVerified   bool     `gorm:"default:false" json:"is_verified"`

	FullName   *string `gorm:"size:100" json:"full_name,omitempty"`
	AboutMe    *string `gorm:"type:text" json:"about_me,omitempty"`
	PhotoURL   *string `gorm:"size:500" json:"photo_url,omitempty"`
	CategoryID *int64  `gorm:"index" json:"category_id,omitempty"`
	City       string  `gorm:"size:100;index" json:"city,omitempty"`

	Reputation  float64 `gorm:"default:0" json:"reputation"`
	DeviceToken *string `gorm:"size:255" json:"-"`

	// Promotion state, written by payment confirmation and the fairness scheduler.
	IsPromoted          bool       `gorm:"default:false;index" json:"is_promoted"`
	PromoteTimesPerDay  *int       `json:"promote_times_per_day,omitempty"`
	PromoteTodayUsed    int        `gorm:"default:0" json:"promote_today_used"`
	LastPromotedAt      *time.Time `json:"last_promoted_at,omitempty"`
	PromotionExpiration *time.Time `json:"promotion_expiration,omitempty"`

	Payments []Payment `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
