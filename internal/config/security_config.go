// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with admin role required
	SecurityCron                        // Cron trigger key or admin access token
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"Health": SecurityPublic,

	// Mock storage - Public (the presigned URL is the credential)
	"MockUpload":   SecurityPublic,
	"MockDownload": SecurityPublic,

	// Categories
	"ListCategories":    SecurityPublic,
	"CreateCategory":    SecurityAdmin,
	"UpdateCategory":    SecurityAdmin,
	"SetCategoryActive": SecurityAdmin,
	"ListAllCategories": SecurityAdmin,

	// Investor - Access Protected
	"CreateDeposit":      SecurityAccess,
	"GetProofUploadURL":  SecurityAccess,
	"AttachDepositProof": SecurityAccess,
	"GetProofURL":        SecurityAccess,
	"RequestWithdrawal":  SecurityAccess,
	"QuoteWithdrawal":    SecurityAccess,
	"ListMyInvestments":  SecurityAccess,
	"GetInvestment":      SecurityAccess,
	"GetBalance":         SecurityAccess,
	"ListMyTransactions": SecurityAccess,
	"GetTransaction":     SecurityAccess,

	// Admin - Admin Protected
	"ListTransactions":    SecurityAdmin,
	"ApproveTransaction":  SecurityAdmin,
	"RejectTransaction":   SecurityAdmin,
	"MarkTransactionPaid": SecurityAdmin,
	"PauseInvestment":     SecurityAdmin,
	"ResumeInvestment":    SecurityAdmin,
	"CompleteInvestment":  SecurityAdmin,
	"CancelInvestment":    SecurityAdmin,
	"RejectInvestment":    SecurityAdmin,

	// Cron trigger
	"TriggerROIPayout": SecurityCron,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
