package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"investledger-backend/internal/config"
	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/security"
)

// CronKeyHeader carries the shared secret of the external payout trigger
const CronKeyHeader = "X-Cron-Key"

type actorKey struct{}

// ActorFromContext returns the caller set by AuthMiddleware. Public routes
// get the zero Actor.
func ActorFromContext(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey{}).(domain.Actor)
	return actor
}

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// AuthMiddleware authenticates requests according to the security level of
// the matched route name
type AuthMiddleware struct {
	tokenManager security.TokenManager
	cronKey      string
}

func NewAuthMiddleware(tm security.TokenManager, cronKey string) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm, cronKey: cronKey}
}

func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		if level == config.SecurityCron && a.validCronKey(r.Header.Get(CronKeyHeader)) {
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), domain.SystemActor)))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: "authorization token is not provided"})
			return
		}

		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, security.ErrExpiredToken) {
				message = "token has expired"
			}
			writeJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: message})
			return
		}

		actor := claims.Actor()
		if (level == config.SecurityAdmin || level == config.SecurityCron) && !actor.IsAdmin() {
			logger.Warn("Admin route refused", "route", name, "user_id", actor.UserID)
			writeJSON(w, http.StatusForbidden, APIResponse{Success: false, Message: "admin role required"})
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (a *AuthMiddleware) validCronKey(key string) bool {
	if a.cronKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.cronKey)) == 1
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(header) > 7 && strings.ToUpper(header[0:7]) == "BEARER " {
		header = header[7:]
	}
	header = strings.TrimSpace(header)
	return header, header != ""
}
