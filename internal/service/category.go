package service

import (
	"context"
	"strings"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
)

type categoryService struct {
	catRepo repository.CategoryRepository
}

func NewCategoryService(catRepo repository.CategoryRepository) CategoryService {
	return &categoryService{catRepo: catRepo}
}

func (s *categoryService) CreateCategory(ctx context.Context, actor domain.Actor, cat *domain.InvestmentCategory) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	cat.Code = strings.ToUpper(strings.TrimSpace(cat.Code))
	cat.Name = strings.TrimSpace(cat.Name)
	if err := cat.Validate(); err != nil {
		return err
	}
	if err := s.catRepo.Create(ctx, cat); err != nil {
		return err
	}
	logger.Info("Category created", "code", cat.Code, "admin_id", actor.UserID)
	return nil
}

// UpdateCategory edits the tier terms. Existing investments keep the rate and
// duration they snapshotted; the code never changes.
func (s *categoryService) UpdateCategory(ctx context.Context, actor domain.Actor, cat *domain.InvestmentCategory) (*domain.InvestmentCategory, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.catRepo.GetByID(ctx, cat.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(cat.Name)
	existing.MinAmount = cat.MinAmount
	existing.MaxAmount = cat.MaxAmount
	existing.MonthlyROIRate = cat.MonthlyROIRate
	existing.DurationMonths = cat.DurationMonths
	existing.Priority = cat.Priority
	existing.EarlyWithdrawalPenaltyRate = cat.EarlyWithdrawalPenaltyRate
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.catRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *categoryService) SetCategoryActive(ctx context.Context, actor domain.Actor, id int64, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.catRepo.SetActive(ctx, id, active)
}

func (s *categoryService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.InvestmentCategory, error) {
	return s.catRepo.List(ctx, activeOnly)
}
