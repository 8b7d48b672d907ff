package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/jobs"
	"investledger-backend/internal/service"
	"investledger-backend/internal/utils"
)

// PayoutTrigger runs one ROI payout pass
type PayoutTrigger interface {
	RunROIPayout(ctx context.Context) (*jobs.PayoutRunSummary, error)
}

// Services holds the service dependencies of the HTTP handlers
type Services struct {
	Categories   service.CategoryService
	Investments  service.InvestmentService
	Deposits     service.DepositService
	Withdrawals  service.WithdrawalService
	Transactions service.TransactionService
	Payouts      PayoutTrigger
}

type Handler struct {
	svc *Services
}

func NewHandler(svc *Services) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "healthy", map[string]interface{}{
		"service":   "investledger",
		"timestamp": time.Now().Unix(),
	})
}

// TriggerROIPayout runs the payout pass synchronously. Lock contention is
// not a failure: the summary reports acquired=false.
func (h *Handler) TriggerROIPayout(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Payouts.RunROIPayout(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	message := "ROI payout completed"
	switch {
	case !summary.Acquired:
		message = "ROI payout already running elsewhere; skipped"
	case summary.Failures > 0:
		message = "ROI payout completed with " + strconv.Itoa(summary.Failures) + " failures"
	}
	writeOK(w, message, summary)
}

// transactionFilter reads the listing query parameters
func transactionFilter(r *http.Request) domain.TransactionFilter {
	q := r.URL.Query()
	f := domain.TransactionFilter{
		Type:   domain.TransactionType(q.Get("type")),
		Status: domain.TransactionStatus(q.Get("status")),
	}
	f.UserID, _ = strconv.ParseInt(q.Get("user_id"), 10, 64)
	f.InvestmentID, _ = strconv.ParseInt(q.Get("investment_id"), 10, 64)
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if t, ok := queryTime(q.Get("from"), false); ok {
		f.From = &t
	}
	if t, ok := queryTime(q.Get("to"), true); ok {
		f.To = &t
	}
	return f
}

// queryTime accepts RFC3339 or yyyy-mm-dd. A bare date used as an upper
// bound covers the whole day.
func queryTime(v string, upper bool) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	d, err := utils.ParseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	if upper {
		return d.Time().AddDate(0, 0, 1), true
	}
	return d.Time(), true
}
