package model

import (
	"time"
)

type PaymentPurpose string

const (
	PurposePromote      PaymentPurpose = "promote"
	PurposeExtraRequest PaymentPurpose = "extra_request"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID      int64          `gorm:"primaryKey" json:"id"`
	UserID  int64          `gorm:"not null;index" json:"user_id"`
	Purpose PaymentPurpose `gorm:"size:20;not null;default:promote;index" json:"purpose"`

	PackageName  string  `gorm:"size:100" json:"package_name,omitempty"`
	TimesPerDay  *int    `json:"times_per_day,omitempty"`
	DurationDays int     `gorm:"default:30" json:"duration_days"`
	Amount       float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Bank         string  `gorm:"size:20;not null" json:"bank"`

	Status    PaymentStatus `gorm:"size:20;default:pending;index" json:"status"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `gorm:"index" json:"end_date,omitempty"`
	IsActive  bool          `gorm:"default:false;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// CoversInstant reports whether the paid validity window contains t.
func (p *Payment) CoversInstant(t time.Time) bool {
	if p.StartDate == nil || p.EndDate == nil {
		return false
	}
	return !p.StartDate.After(t) && !p.EndDate.Before(t)
}

// PromotesAt reports whether this record grants an active promotion at t.
func (p *Payment) PromotesAt(t time.Time) bool {
	return p.Purpose == PurposePromote &&
		p.Status == PaymentStatusPaid &&
		p.IsActive &&
		p.CoversInstant(t)
}
