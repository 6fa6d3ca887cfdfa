package middleware

import (
	"net/http"
	"strings"

	"github.com/oventura/traderow-backend/api/responses"
	"github.com/oventura/traderow-backend/internal/tenant"
	pkgauth "github.com/oventura/traderow-backend/pkg/auth"
	"github.com/oventura/traderow-backend/pkg/config"
	"github.com/oventura/traderow-backend/pkg/enums"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
	"github.com/oventura/traderow-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller's tenant scope. Company users are bound to the company in their
// claims; super admins get an unscoped view.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			scope := tenant.Unbound()
			switch {
			case claims.Role == enums.RoleSuperAdmin:
				scope = tenant.SuperAdmin()
			case claims.CompanyID != nil:
				scope = tenant.ForCompany(*claims.CompanyID)
			default:
				// A company user without a company claim gets the
				// fail-closed unbound scope; every lookup reads empty.
			}

			ctx := tenant.WithScope(r.Context(), scope)
			ctx = WithUserID(ctx, claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))

			if logg != nil {
				fields := map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				}
				if claims.CompanyID != nil {
					fields["company_id"] = claims.CompanyID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
