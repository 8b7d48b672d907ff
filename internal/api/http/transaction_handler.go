package http

import (
	"context"
	"net/http"

	"investledger-backend/internal/domain"
)

type transactionPage struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int                  `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
}

// ListMyTransactions lists the caller's own history
func (h *Handler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r)
}

// ListTransactions is the admin listing; user_id may filter by investor
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter := transactionFilter(r)
	filter.Normalize()
	txs, total, err := h.svc.Transactions.ListTransactions(r.Context(), ActorFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeOK(w, "Transactions", transactionPage{Transactions: txs, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Transactions.GetTransaction(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Transaction", Reference: view.Transaction.Reference, Data: view})
}

type reviewFunc func(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error)

func (h *Handler) review(message string, fn reviewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		tx, err := fn(r.Context(), ActorFromContext(r.Context()), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Reference: tx.Reference, Data: tx})
	}
}

func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.review("Transaction approved", h.svc.Transactions.Approve)(w, r)
}

func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	h.review("Transaction rejected", h.svc.Transactions.Reject)(w, r)
}

func (h *Handler) MarkTransactionPaid(w http.ResponseWriter, r *http.Request) {
	h.review("Withdrawal marked as paid", h.svc.Transactions.MarkPaid)(w, r)
}
