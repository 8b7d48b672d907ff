package http

import (
	"context"
	"net/http"

	"investledger-backend/internal/domain"
)

func (h *Handler) ListMyInvestments(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.Investments.ListMyInvestments(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if invs == nil {
		invs = []domain.Investment{}
	}
	writeOK(w, "Investments", invs)
}

func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Investments.GetInvestment(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Investment", view)
}

// GetBalance returns only the ledger of an investment the caller may see
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Investments.GetInvestment(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Balance", view.Balance)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error)

func (h *Handler) transition(message string, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		inv, err := fn(r.Context(), ActorFromContext(r.Context()), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, message, inv)
	}
}

func (h *Handler) PauseInvestment(w http.ResponseWriter, r *http.Request) {
	h.transition("Investment paused", h.svc.Investments.Pause)(w, r)
}

func (h *Handler) ResumeInvestment(w http.ResponseWriter, r *http.Request) {
	h.transition("Investment resumed", h.svc.Investments.Resume)(w, r)
}

func (h *Handler) CompleteInvestment(w http.ResponseWriter, r *http.Request) {
	h.transition("Investment completed", h.svc.Investments.Complete)(w, r)
}

func (h *Handler) CancelInvestment(w http.ResponseWriter, r *http.Request) {
	h.transition("Investment cancelled", h.svc.Investments.Cancel)(w, r)
}

func (h *Handler) RejectInvestment(w http.ResponseWriter, r *http.Request) {
	h.transition("Investment rejected", h.svc.Investments.Reject)(w, r)
}
