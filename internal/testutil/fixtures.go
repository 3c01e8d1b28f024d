package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/internal/model"
)

var phoneSeq int64

func nextPhone() string {
	return fmt.Sprintf("+7701%07d", atomic.AddInt64(&phoneSeq, 1))
}

// TestMaster creates a verified master in Almaty by default.
func TestMaster(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		PhoneNumber: nextPhone(),
		UserType:    model.UserTypeMaster,
		IsVerified:  true,
		City:        "Almaty",
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test master: %v", err)
	}

	return user
}

// TestClient creates a verified client user.
func TestClient(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		PhoneNumber: nextPhone(),
		UserType:    model.UserTypeClient,
		IsVerified:  true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}

	return user
}

// WithCity sets the city partition.
func WithCity(city string) func(*model.User) {
	return func(u *model.User) {
		u.City = city
	}
}

// WithCategory sets the category filter key.
func WithCategory(categoryID int64) func(*model.User) {
	return func(u *model.User) {
		u.CategoryID = &categoryID
	}
}

// WithReputation sets the reputation score.
func WithReputation(score float64) func(*model.User) {
	return func(u *model.User) {
		u.Reputation = score
	}
}

// WithFullName sets the display name.
func WithFullName(name string) func(*model.User) {
	return func(u *model.User) {
		u.FullName = &name
	}
}

// WithPromotion enables promotion with the given daily quota and expiry.
func WithPromotion(timesPerDay int, expiresAt time.Time) func(*model.User) {
	return func(u *model.User) {
		u.IsPromoted = true
		u.PromoteTimesPerDay = &timesPerDay
		u.PromotionExpiration = &expiresAt
	}
}

// WithDailyUsed sets the consumed daily promotion credits.
func WithDailyUsed(used int) func(*model.User) {
	return func(u *model.User) {
		u.PromoteTodayUsed = used
	}
}

// WithLastPromotedAt sets the rotation timestamp.
func WithLastPromotedAt(at time.Time) func(*model.User) {
	return func(u *model.User) {
		u.LastPromotedAt = &at
	}
}

// TestPromotePayment creates a paid, active promote payment valid for 30 days
// around now.
func TestPromotePayment(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Payment)) *model.Payment {
	t.Helper()

	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(30 * 24 * time.Hour)
	times := 3

	payment := &model.Payment{
		UserID:       userID,
		Purpose:      model.PurposePromote,
		PackageName:  "Top boost 3 times/day",
		TimesPerDay:  &times,
		DurationDays: 30,
		Amount:       1800,
		Bank:         "Kaspi",
		Status:       model.PaymentStatusPaid,
		StartDate:    &start,
		EndDate:      &end,
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(payment)
	}

	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return payment
}

// WithWindow sets the validity window.
func WithWindow(start, end time.Time) func(*model.Payment) {
	return func(p *model.Payment) {
		p.StartDate = &start
		p.EndDate = &end
	}
}

// WithPaymentStatus sets the payment status.
func WithPaymentStatus(status model.PaymentStatus) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Status = status
	}
}

// WithPurpose sets the payment purpose.
func WithPurpose(purpose model.PaymentPurpose) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Purpose = purpose
	}
}

// WithInactive clears the active flag.
func WithInactive() func(*model.Payment) {
	return func(p *model.Payment) {
		p.IsActive = false
	}
}

// WithTimesPerDay sets the package quota on the payment.
func WithTimesPerDay(times int) func(*model.Payment) {
	return func(p *model.Payment) {
		p.TimesPerDay = &times
	}
}
