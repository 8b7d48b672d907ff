package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
)

type categoryRequest struct {
	Code                       string              `json:"code" validate:"required,max=32"`
	Name                       string              `json:"name" validate:"required,max=100"`
	MinAmount                  decimal.Decimal     `json:"min_amount"`
	MaxAmount                  decimal.Decimal     `json:"max_amount"`
	MonthlyROIRate             decimal.Decimal     `json:"monthly_roi_rate"`
	DurationMonths             int                 `json:"duration_months" validate:"required,gt=0"`
	Priority                   int                 `json:"priority"`
	IsActive                   *bool               `json:"is_active"`
	EarlyWithdrawalPenaltyRate decimal.NullDecimal `json:"early_withdrawal_penalty_rate"`
}

func (req categoryRequest) category() *domain.InvestmentCategory {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &domain.InvestmentCategory{
		Code:                       req.Code,
		Name:                       req.Name,
		MinAmount:                  req.MinAmount,
		MaxAmount:                  req.MaxAmount,
		MonthlyROIRate:             req.MonthlyROIRate,
		DurationMonths:             req.DurationMonths,
		Priority:                   req.Priority,
		IsActive:                   active,
		EarlyWithdrawalPenaltyRate: req.EarlyWithdrawalPenaltyRate,
	}
}

type categoryStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListCategories lists the tiers open for deposits
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, true)
}

func (h *Handler) ListAllCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, false)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	cats, err := h.svc.Categories.ListCategories(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []domain.InvestmentCategory{}
	}
	writeOK(w, "Categories", cats)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cat := req.category()
	if err := h.svc.Categories.CreateCategory(r.Context(), ActorFromContext(r.Context()), cat); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Category created", Data: cat})
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cat := req.category()
	cat.ID = id
	updated, err := h.svc.Categories.UpdateCategory(r.Context(), ActorFromContext(r.Context()), cat)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Category updated", updated)
}

func (h *Handler) SetCategoryActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req categoryStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Categories.SetCategoryActive(r.Context(), ActorFromContext(r.Context()), id, *req.IsActive); err != nil {
		writeError(w, r, err)
		return
	}
	message := "Category disabled"
	if *req.IsActive {
		message = "Category enabled"
	}
	writeOK(w, message, map[string]interface{}{"id": id, "is_active": *req.IsActive})
}
