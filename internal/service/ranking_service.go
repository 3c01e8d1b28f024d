package service

import (
	"sort"
	"time"

	"github.com/qs3c/uslugi_go_server/internal/model"
	"github.com/qs3c/uslugi_go_server/internal/model/dto"
	"github.com/qs3c/uslugi_go_server/internal/repository"
)

// RankingService composes the public master listing: currently promoted
// masters first in fairness-queue order, then the rest by reputation.
//
// The read path is deliberately side-effect-free with respect to
// last_promoted_at and the daily counter; only the scheduler advances the
// queue. The single write a read may trigger is the idempotent deactivation
// of expired payments.
type RankingService struct {
	userRepo  *repository.UserRepository
	promotion *PromotionService
	now       func() time.Time
}

func NewRankingService(
	userRepo *repository.UserRepository,
	promotion *PromotionService,
) *RankingService {
	return &RankingService{
		userRepo:  userRepo,
		promotion: promotion,
		now:       time.Now,
	}
}

// Rank returns the ordered master list for the optional city and category
// filters.
func (s *RankingService) Rank(city string, categoryID *int64) ([]*dto.MasterInfo, error) {
	now := s.now()

	// Expired promotions must never surface in the promoted bucket.
	if err := s.promotion.DeactivateExpired(now); err != nil {
		return nil, err
	}

	masters, err := s.userRepo.ListMasters(city, categoryID)
	if err != nil {
		return nil, err
	}

	var promoted, regular []*model.User
	for i := range masters {
		if PromotedAt(&masters[i], now) {
			promoted = append(promoted, &masters[i])
		} else {
			regular = append(regular, &masters[i])
		}
	}

	// Oldest-promoted leads; a never-promoted master sorts before everyone.
	sort.Slice(promoted, func(i, j int) bool {
		a, b := promoted[i].LastPromotedAt, promoted[j].LastPromotedAt
		switch {
		case a == nil && b == nil:
			return promoted[i].ID < promoted[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Equal(*b):
			return promoted[i].ID < promoted[j].ID
		default:
			return a.Before(*b)
		}
	})

	sort.Slice(regular, func(i, j int) bool {
		if regular[i].Reputation == regular[j].Reputation {
			return regular[i].ID < regular[j].ID
		}
		return regular[i].Reputation > regular[j].Reputation
	})

	result := make([]*dto.MasterInfo, 0, len(promoted)+len(regular))
	for _, u := range promoted {
		result = append(result, buildMasterInfo(u, true))
	}
	for _, u := range regular {
		result = append(result, buildMasterInfo(u, false))
	}
	return result, nil
}

func buildMasterInfo(u *model.User, promoted bool) *dto.MasterInfo {
	info := &dto.MasterInfo{
		ID:         u.ID,
		CategoryID: u.CategoryID,
		City:       u.City,
		Reputation: u.Reputation,
		Promoted:   promoted,
	}
	if u.FullName != nil {
		info.FullName = *u.FullName
	}
	if u.AboutMe != nil {
		info.AboutMe = *u.AboutMe
	}
	if u.PhotoURL != nil {
		info.PhotoURL = *u.PhotoURL
	}
	if u.LastPromotedAt != nil {
		info.LastPromotedAt = u.LastPromotedAt.Format(time.RFC3339)
	}
	return info
}
