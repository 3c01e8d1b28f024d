package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/model"
	"github.com/qs3c/uslugi_go_server/internal/model/dto"
	"github.com/qs3c/uslugi_go_server/internal/repository"
)

const paymentConfirmedMessage = "Payment confirmed! Your profile is being promoted to the top"

// PromotionService owns the promotion payment lifecycle: purchase, confirm,
// expiry deactivation, and the eligibility rule shared with the ranking path.
type PromotionService struct {
	userRepo     *repository.UserRepository
	paymentRepo  *repository.PaymentRepository
	notification *NotificationService
	cfg          *config.Config
	now          func() time.Time
}

func NewPromotionService(
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	notification *NotificationService,
	cfg *config.Config,
) *PromotionService {
	return &PromotionService{
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		notification: notification,
		cfg:          cfg,
		now:          time.Now,
	}
}

// PromotedAt applies the eligibility rule: the master currently holds a paid,
// active, unexpired promote payment. Quota exhaustion does not end eligibility;
// it only pauses scheduler advancement until the daily reset.
func PromotedAt(user *model.User, now time.Time) bool {
	if !user.IsPromoted {
		return false
	}
	for i := range user.Payments {
		if user.Payments[i].PromotesAt(now) {
			return true
		}
	}
	return false
}

// DeactivateExpired lazily flips off promote payments whose window has passed.
// Safe to call from any read path; already-inactive records are untouched.
func (s *PromotionService) DeactivateExpired(now time.Time) error {
	n, err := s.paymentRepo.DeactivateExpired(now)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("promotion: deactivated %d expired payment(s)", n)
	}
	return nil
}

// Purchase creates a pending promote payment for a master. Rejected when the
// package or bank selector is unknown or an active promotion already exists.
func (s *PromotionService) Purchase(userID int64, req *dto.PromoteRequest) (*dto.PromoteResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.UserType != model.UserTypeMaster {
		return nil, ErrMasterOnly
	}

	pkg, ok := s.cfg.Promotion.PackageFor(req.TimesPerDay)
	if !ok {
		return nil, ErrUnknownPackage
	}
	if !s.cfg.Promotion.BankAllowed(req.Bank) {
		return nil, ErrUnknownBank
	}

	now := s.now()
	active, err := s.paymentRepo.ActivePromotionForUser(userID, now)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrActivePromotionExists
	}

	times := pkg.TimesPerDay
	payment := &model.Payment{
		UserID:       userID,
		Purpose:      model.PurposePromote,
		PackageName:  pkg.Name,
		TimesPerDay:  &times,
		DurationDays: s.durationDays(),
		Amount:       pkg.Amount,
		Bank:         req.Bank,
		Status:       model.PaymentStatusPending,
		IsActive:     false,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	return &dto.PromoteResponse{
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Bank:      payment.Bank,
		Message:   fmt.Sprintf("Payment created. Confirm it via /payments/%d/confirm", payment.ID),
	}, nil
}

// Confirm marks a pending payment paid, opens its validity window, activates
// the master's promotion state and notifies the owner. Confirming an
// already-paid payment is a no-op.
func (s *PromotionService) Confirm(userID, paymentID int64) (*dto.PaymentInfo, error) {
	payment, err := s.paymentRepo.GetOwned(paymentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status == model.PaymentStatusPaid {
		return buildPaymentInfo(payment), nil
	}

	now := s.now()
	end := now.Add(time.Duration(payment.DurationDays) * 24 * time.Hour)
	payment.Status = model.PaymentStatusPaid
	payment.StartDate = &now
	payment.EndDate = &end
	payment.IsActive = true
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}

	if payment.Purpose == model.PurposePromote && payment.TimesPerDay != nil {
		if err := s.userRepo.ActivatePromotion(userID, *payment.TimesPerDay, end); err != nil {
			return nil, err
		}
		if err := s.notification.Notify(userID, paymentConfirmedMessage); err != nil {
			// The promotion itself is active; a lost notification is not
			// worth failing the confirmation over.
			log.Printf("promotion: failed to notify user %d: %v", userID, err)
		}
	}

	return buildPaymentInfo(payment), nil
}

// PurchaseExtraRequest charges a client the fixed extra-request fee. The
// record is immediately paid and active, no validity window bookkeeping.
func (s *PromotionService) PurchaseExtraRequest(userID int64, bank string) (*dto.PaymentInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.UserType != model.UserTypeClient {
		return nil, ErrClientOnly
	}
	if !s.cfg.Promotion.BankAllowed(bank) {
		return nil, ErrUnknownBank
	}

	now := s.now()
	payment := &model.Payment{
		UserID:    userID,
		Purpose:   model.PurposeExtraRequest,
		Amount:    s.cfg.Promotion.ExtraRequestAmount,
		Bank:      bank,
		Status:    model.PaymentStatusPaid,
		StartDate: &now,
		IsActive:  true,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	return buildPaymentInfo(payment), nil
}

// ListPayments returns the caller's payment history, newest first.
func (s *PromotionService) ListPayments(userID int64) ([]*dto.PaymentInfo, error) {
	payments, err := s.paymentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.PaymentInfo, 0, len(payments))
	for i := range payments {
		infos = append(infos, buildPaymentInfo(&payments[i]))
	}
	return infos, nil
}

func (s *PromotionService) durationDays() int {
	if s.cfg.Promotion.DurationDays > 0 {
		return s.cfg.Promotion.DurationDays
	}
	return 30
}

func buildPaymentInfo(p *model.Payment) *dto.PaymentInfo {
	info := &dto.PaymentInfo{
		ID:          p.ID,
		Purpose:     string(p.Purpose),
		PackageName: p.PackageName,
		TimesPerDay: p.TimesPerDay,
		Amount:      p.Amount,
		Bank:        p.Bank,
		Status:      string(p.Status),
		IsActive:    p.IsActive,
	}
	if p.StartDate != nil {
		info.StartDate = p.StartDate.Format(time.RFC3339)
	}
	if p.EndDate != nil {
		info.EndDate = p.EndDate.Format(time.RFC3339)
	}
	return info
}
