package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/utils"
)

// AdminKey is the context key for the resolved admin
const AdminKey ContextKey = "admin"

// RequireAdmin returns a middleware that resolves the signed-in user to a
// back-office admin. Non-admins get a 403; the admin row is stored in the
// request context for handlers and capability checks.
func RequireAdmin(adminSvc admin.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			a, err := adminSvc.GetByUserID(r.Context(), userID)
			if err != nil || a == nil {
				utils.WriteError(w, errors.Forbidden("Back-office access required"))
				return
			}

			AddLogField(w, "admin_id", a.ID)
			AddLogField(w, "admin_role", a.Role)

			ctx := context.WithValue(r.Context(), AdminKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMaster returns a middleware that only lets master admins through.
// It must run after RequireAdmin.
func RequireMaster() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := GetAdmin(r)
			if !ok || a.Role != admin.RoleMaster {
				utils.WriteError(w, errors.Forbidden("Master admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUserAccess returns a middleware that checks the acting admin may
// manage the user named by the {userID} URL param. Masters always pass;
// group admins pass only for users in their groups. It must run after
// RequireAdmin.
func RequireUserAccess(adminSvc admin.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := GetAdmin(r)
			if !ok {
				utils.WriteError(w, errors.Forbidden("Back-office access required"))
				return
			}

			userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
			if err != nil || userID < 1 {
				utils.WriteError(w, errors.BadRequest("Invalid userID"))
				return
			}

			allowed, checkErr := adminSvc.CanManageUser(r.Context(), a, userID)
			if checkErr != nil {
				utils.WriteError(w, errors.Internal("Failed to check user access", checkErr))
				return
			}
			if !allowed {
				utils.WriteError(w, errors.Forbidden("User is outside your groups"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetAdmin extracts the resolved admin from the request context
func GetAdmin(r *http.Request) (*admin.AdminUser, bool) {
	a, ok := r.Context().Value(AdminKey).(*admin.AdminUser)
	return a, ok
}
