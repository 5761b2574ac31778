package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/rbac"
	"github.com/frahmantamala/access-management/internal/role"
	"github.com/frahmantamala/access-management/internal/transport/middleware"
	"github.com/frahmantamala/access-management/internal/transport/swagger"
	"github.com/frahmantamala/access-management/internal/user"
)

type Handlers struct {
	Auth *auth.Handler
	User *user.Handler
	Role *role.Handler
	RBAC *rbac.Handler
}

// RegisterAllRoutes mounts everything under /api/v1. Management routes sit
// behind the auth middleware plus a per-resource permission guard.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, guard *auth.RBACAuthorization, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(splitOrigins(allowedOrigins)))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", handlers.Auth.Login)
			sr.Post("/refresh", handlers.Auth.Refresh)
			sr.Post("/logout", handlers.Auth.Logout)
			sr.Post("/register", handlers.User.Register)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			pr.Get("/me", handlers.User.GetProfile)
			pr.Put("/me", handlers.User.UpdateProfile)
			pr.Post("/me/password", handlers.User.ChangePassword)

			pr.Route("/users", func(ur chi.Router) {
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionRead)).
					Get("/", handlers.User.ListUsers)
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionRead)).
					Get("/{id}", handlers.User.GetUser)
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionCreate)).
					Post("/", handlers.User.CreateUser)
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionUpdate)).
					Put("/{id}", handlers.User.UpdateUser)
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionUpdate)).
					Patch("/{id}/status", handlers.User.ChangeStatus)
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionDelete)).
					Delete("/{id}", handlers.User.DeleteUser)

				ur.With(guard.Require(permission.ResourceUsers, permission.ActionRead)).
					Get("/{id}/permissions", handlers.RBAC.GetUserPermissions)
				ur.With(guard.Require(permission.ResourceUsers, permission.ActionRead)).
					Get("/{id}/permissions/check", handlers.RBAC.CheckUserPermission)
				ur.With(guard.Require(permission.ResourceRoles, permission.ActionManage)).
					Post("/{id}/roles/{roleID}", handlers.RBAC.AssignRoleToUser)
				ur.With(guard.Require(permission.ResourceRoles, permission.ActionManage)).
					Delete("/{id}/roles/{roleID}", handlers.RBAC.RemoveRoleFromUser)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionRead)).
					Get("/", handlers.Role.ListRoles)
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionRead)).
					Get("/{id}", handlers.Role.GetRole)
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionCreate)).
					Post("/", handlers.Role.CreateRole)
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionUpdate)).
					Put("/{id}", handlers.Role.UpdateRole)
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionDelete)).
					Delete("/{id}", handlers.Role.DeleteRole)

				rr.With(guard.Require(permission.ResourceRoles, permission.ActionRead)).
					Get("/{id}/permissions", handlers.RBAC.GetRolePermissions)
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionManage)).
					Post("/{id}/permissions/{permissionID}", handlers.RBAC.AssignPermissionToRole)
				rr.With(guard.Require(permission.ResourceRoles, permission.ActionManage)).
					Delete("/{id}/permissions/{permissionID}", handlers.RBAC.RemovePermissionFromRole)
			})

			pr.With(guard.Require(permission.ResourcePermissions, permission.ActionRead)).
				Get("/permissions", handlers.RBAC.ListPermissions)
		})
	})
}

func splitOrigins(allowedOrigins string) []string {
	if allowedOrigins == "" {
		return nil
	}
	var out []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" && origin != "*" {
			out = append(out, origin)
		}
	}
	return out
}
