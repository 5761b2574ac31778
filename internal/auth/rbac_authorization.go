package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-management/internal/permission"
)

// RBACAuthorization builds the claim-check policies the routers mount. Each
// policy resolves to "does the caller's permission claims contain
// {Resource}.{Action}".
type RBACAuthorization struct {
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &RBACAuthorization{
		checker: checker,
		logger:  logger,
	}
}

// Require guards a route behind one resource/action permission.
func (ra *RBACAuthorization) Require(resource string, action permission.Action) func(http.Handler) http.Handler {
	required := permission.FullPermission(resource, action)
	policy := permission.PolicyName(resource, action)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context", "policy", policy)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !ra.checker.HasPermission(user.Permissions, required) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"policy", policy,
					"required_permission", required)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission guards a route behind a raw permission string.
func (ra *RBACAuthorization) RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !ra.checker.HasPermission(user.Permissions, required) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permission", required)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when the caller holds at least one of the listed
// permission strings.
func (ra *RBACAuthorization) RequireAny(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !ra.checker.HasAnyPermission(user.Permissions, required) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permissions", required)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
