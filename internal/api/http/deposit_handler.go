package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/service"
)

type createDepositRequest struct {
	InvestmentCategoryCode string          `json:"investment_category_code" validate:"required,max=32"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description" validate:"max=255"`
}

type proofURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type attachProofRequest struct {
	Key string `json:"key" validate:"required,max=512"`
}

func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req createDepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.svc.Deposits.CreateDeposit(r.Context(), ActorFromContext(r.Context()), service.DepositRequest{
		CategoryCode: req.InvestmentCategoryCode,
		Amount:       req.Amount,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success:   true,
		Message:   "Deposit recorded. Transfer the amount to the account below and upload your proof of payment.",
		Reference: receipt.Transaction.Reference,
		Data: map[string]interface{}{
			"transaction_id": receipt.Transaction.ID,
			"investment_id":  receipt.Investment.ID,
			"amount":         receipt.Transaction.Amount,
			"bank_details":   receipt.BankDetails,
		},
	})
}

func (h *Handler) GetProofUploadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req proofURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upload, err := h.svc.Deposits.ProofUploadURL(r.Context(), ActorFromContext(r.Context()), id, req.ContentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Upload URL issued", upload)
}

func (h *Handler) AttachDepositProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req attachProofRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := h.svc.Deposits.AttachProof(r.Context(), ActorFromContext(r.Context()), id, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Proof attached", Reference: tx.Reference, Data: tx})
}

func (h *Handler) GetProofURL(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	url, err := h.svc.Deposits.ProofDownloadURL(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Download URL issued", map[string]string{"url": url})
}
