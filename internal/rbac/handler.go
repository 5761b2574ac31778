package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/transport"
	"github.com/frahmantamala/access-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListPermissions handles GET /permissions
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

// GetUserPermissions handles GET /users/{id}/permissions
func (h *Handler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	perms, err := h.Service.GetUserPermissions(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "permissions": perms})
}

// GetRolePermissions handles GET /roles/{id}/permissions
func (h *Handler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	perms, err := h.Service.GetRolePermissions(r.Context(), roleID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"role_id": roleID, "permissions": perms})
}

// CheckUserPermission handles GET /users/{id}/permissions/check?permission=...
func (h *Handler) CheckUserPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	permissionString := r.URL.Query().Get("permission")
	if permissionString == "" {
		h.WriteError(w, http.StatusBadRequest, "permission query parameter is required")
		return
	}

	has, err := h.Service.UserHasPermission(r.Context(), userID, permissionString)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        userID,
		"permission":     permissionString,
		"has_permission": has,
	})
}

// AssignPermissionToRole handles POST /roles/{id}/permissions/{permissionID}
func (h *Handler) AssignPermissionToRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}

	if err := h.Service.AssignPermissionToRole(r.Context(), roleID, permissionID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePermissionFromRole handles DELETE /roles/{id}/permissions/{permissionID}
func (h *Handler) RemovePermissionFromRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}

	if err := h.Service.RemovePermissionFromRole(r.Context(), roleID, permissionID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRoleToUser handles POST /users/{id}/roles/{roleID}
func (h *Handler) AssignRoleToUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}

	if err := h.Service.AssignRoleToUser(r.Context(), userID, roleID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRoleFromUser handles DELETE /users/{id}/roles/{roleID}
func (h *Handler) RemoveRoleFromUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}

	if err := h.Service.RemoveRoleFromUser(r.Context(), userID, roleID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := appErrors.IsAppError(err); ok {
		h.WriteError(w, appErr.StatusCode, appErr.Message)
		return
	}
	h.Logger.Error("rbac operation failed", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
