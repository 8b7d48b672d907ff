package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/service"
	"investledger-backend/internal/utils"
)

type withdrawalRequest struct {
	InvestmentID      int64           `json:"investment_id" validate:"required,gt=0"`
	BankName          string          `json:"bank_name" validate:"required,max=100"`
	AccountHolderName string          `json:"account_holder_name" validate:"required,max=100"`
	AccountNumber     string          `json:"account_number" validate:"required,len=10,numeric"`
	Amount            decimal.Decimal `json:"amount"`
	EarlyWithdrawal   bool            `json:"early_withdrawal"`
}

type quoteRequest struct {
	InvestmentID    int64           `json:"investment_id" validate:"required,gt=0"`
	Amount          decimal.Decimal `json:"amount"`
	EarlyWithdrawal bool            `json:"early_withdrawal"`
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.svc.Withdrawals.RequestWithdrawal(r.Context(), ActorFromContext(r.Context()), service.WithdrawalRequest{
		InvestmentID:      req.InvestmentID,
		BankName:          req.BankName,
		AccountHolderName: req.AccountHolderName,
		AccountNumber:     req.AccountNumber,
		Amount:            req.Amount,
		EarlyWithdrawal:   req.EarlyWithdrawal,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Withdrawal request submitted"
	if receipt.Penalty != nil {
		message = "Early withdrawal request submitted. A penalty of " + utils.FormatNaira(receipt.Penalty.Amount) +
			" applies; you will receive " + utils.FormatNaira(receipt.Quote.Net) + "."
	}
	writeJSON(w, http.StatusCreated, APIResponse{
		Success:   true,
		Message:   message,
		Reference: receipt.Transaction.Reference,
		Data:      receipt,
	})
}

func (h *Handler) QuoteWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quote, err := h.svc.Withdrawals.QuoteWithdrawal(r.Context(), ActorFromContext(r.Context()), req.InvestmentID, req.Amount, req.EarlyWithdrawal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Withdrawal quote", quote)
}
