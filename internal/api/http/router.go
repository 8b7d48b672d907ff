package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"investledger-backend/internal/config"
)

// RouterOptions configures NewRouter. Proofs is nil unless mock storage is
// in use.
type RouterOptions struct {
	Server config.ServerConfig
	Proofs *ProofStorageHandler
}

// NewRouter registers every endpoint by name. The names key the security
// levels in config.EndpointSecurityConfig.
func NewRouter(h *Handler, auth *AuthMiddleware, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name("Health")

	// Proof files are not JSON and skip the body cap
	if opts.Proofs != nil {
		r.HandleFunc("/api/v1/upload/{token}", opts.Proofs.HandleMockUpload).Methods(http.MethodPut).Name("MockUpload")
		r.HandleFunc("/api/v1/download/{hash}", opts.Proofs.HandleMockDownload).Methods(http.MethodGet).Name("MockDownload")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(maxBody(opts.Server.MaxBodyBytes))
	api.Use(auth.Middleware)

	// Cron trigger
	api.HandleFunc("/cron/roi", h.TriggerROIPayout).Methods(http.MethodPost).Name("TriggerROIPayout")

	// Categories
	api.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet).Name("ListCategories")

	// Investor
	api.HandleFunc("/deposits", h.CreateDeposit).Methods(http.MethodPost).Name("CreateDeposit")
	api.HandleFunc("/deposits/{id}/proof-url", h.GetProofUploadURL).Methods(http.MethodPost).Name("GetProofUploadURL")
	api.HandleFunc("/deposits/{id}/proof", h.AttachDepositProof).Methods(http.MethodPost).Name("AttachDepositProof")
	api.HandleFunc("/deposits/{id}/proof", h.GetProofURL).Methods(http.MethodGet).Name("GetProofURL")
	api.HandleFunc("/withdrawals", h.RequestWithdrawal).Methods(http.MethodPost).Name("RequestWithdrawal")
	api.HandleFunc("/withdrawals/quote", h.QuoteWithdrawal).Methods(http.MethodPost).Name("QuoteWithdrawal")
	api.HandleFunc("/investments", h.ListMyInvestments).Methods(http.MethodGet).Name("ListMyInvestments")
	api.HandleFunc("/investments/{id}", h.GetInvestment).Methods(http.MethodGet).Name("GetInvestment")
	api.HandleFunc("/investments/{id}/balance", h.GetBalance).Methods(http.MethodGet).Name("GetBalance")
	api.HandleFunc("/transactions", h.ListMyTransactions).Methods(http.MethodGet).Name("ListMyTransactions")
	api.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet).Name("GetTransaction")

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/categories", h.ListAllCategories).Methods(http.MethodGet).Name("ListAllCategories")
	admin.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost).Name("CreateCategory")
	admin.HandleFunc("/categories/{id}", h.UpdateCategory).Methods(http.MethodPut).Name("UpdateCategory")
	admin.HandleFunc("/categories/{id}/status", h.SetCategoryActive).Methods(http.MethodPatch).Name("SetCategoryActive")
	admin.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet).Name("ListTransactions")
	admin.HandleFunc("/transactions/{id}/approve", h.ApproveTransaction).Methods(http.MethodPost).Name("ApproveTransaction")
	admin.HandleFunc("/transactions/{id}/reject", h.RejectTransaction).Methods(http.MethodPost).Name("RejectTransaction")
	admin.HandleFunc("/transactions/{id}/pay", h.MarkTransactionPaid).Methods(http.MethodPost).Name("MarkTransactionPaid")
	admin.HandleFunc("/investments/{id}/pause", h.PauseInvestment).Methods(http.MethodPost).Name("PauseInvestment")
	admin.HandleFunc("/investments/{id}/resume", h.ResumeInvestment).Methods(http.MethodPost).Name("ResumeInvestment")
	admin.HandleFunc("/investments/{id}/complete", h.CompleteInvestment).Methods(http.MethodPost).Name("CompleteInvestment")
	admin.HandleFunc("/investments/{id}/cancel", h.CancelInvestment).Methods(http.MethodPost).Name("CancelInvestment")
	admin.HandleFunc("/investments/{id}/reject", h.RejectInvestment).Methods(http.MethodPost).Name("RejectInvestment")

	if len(opts.Server.AllowedOrigins) == 0 {
		return r
	}
	return handlers.CORS(
		handlers.AllowedOrigins(opts.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", CronKeyHeader}),
	)(r)
}

// maxBody caps request bodies at limit bytes
func maxBody(limit int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
