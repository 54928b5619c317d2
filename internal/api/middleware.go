// Package api implements the notebook REST API using chi.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/notebook/internal/authn"
	"github.com/starford/notebook/internal/store"
	"github.com/starford/notebook/internal/tenant"
)

// Headers that switch the request into an organization space.
const (
	HeaderTenantID   = "X-Tenant-Id"
	HeaderTenantType = "X-Tenant-Type"
)

// TokenLookup resolves a bearer token to a user id.
type TokenLookup interface {
	Lookup(token string) (int64, bool)
}

// AuthOptions configures AuthMiddleware.
//
// When Enabled is false every request acts as LocalUserID, which suits a
// single-user local install. When Enabled is true requests must carry
// "Authorization: Bearer <token>" with a token known to Tokens.
type AuthOptions struct {
	Enabled     bool
	Tokens      TokenLookup
	LocalUserID int64
}

// AuthMiddleware puts the authenticated user id on the request context.
func AuthMiddleware(opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Enabled {
				next.ServeHTTP(w, r.WithContext(authn.WithUser(r.Context(), opts.LocalUserID)))
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			uid, ok := opts.Tokens.Lookup(strings.TrimPrefix(auth, "Bearer "))
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(authn.WithUser(r.Context(), uid)))
		})
	}
}

// TenantMiddleware establishes the tenant identity for the rest of the
// request. Without tenant headers the caller acts in their personal space.
// With X-Tenant-Id and X-Tenant-Type the caller switches to that space,
// which for organizations requires membership.
//
// The identity only lives on this request's context, so it disappears with
// the request on every exit path, including panics recovered upstream.
func TenantMiddleware(members store.Membership) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := authn.UserFromContext(r.Context())
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}

			id, status, msg := resolveTenant(r, members, uid)
			if status != 0 {
				writeJSON(w, status, errorBody(msg))
				return
			}
			next.ServeHTTP(w, r.WithContext(tenant.WithIdentity(r.Context(), id)))
		})
	}
}

func resolveTenant(r *http.Request, members store.Membership, uid int64) (tenant.Identity, int, string) {
	rawID := r.Header.Get(HeaderTenantID)
	rawKind := r.Header.Get(HeaderTenantType)
	if rawID == "" && rawKind == "" {
		return tenant.Personal(uid), 0, ""
	}
	if rawID == "" || rawKind == "" {
		return tenant.Identity{}, http.StatusBadRequest, "both " + HeaderTenantID + " and " + HeaderTenantType + " are required"
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return tenant.Identity{}, http.StatusBadRequest, "invalid " + HeaderTenantID
	}
	kind, err := tenant.ParseKind(rawKind)
	if err != nil {
		return tenant.Identity{}, http.StatusBadRequest, "invalid " + HeaderTenantType
	}

	switch kind {
	case tenant.KindPersonal:
		if id != uid {
			return tenant.Identity{}, http.StatusForbidden, "forbidden"
		}
		return tenant.Personal(uid), 0, ""
	default:
		ok, err := members.IsMember(r.Context(), id, uid)
		if err != nil {
			slog.Error("membership check failed",
				slog.Int64("org_id", id), slog.Int64("user_id", uid), slog.String("error", err.Error()))
			return tenant.Identity{}, http.StatusInternalServerError, "internal error"
		}
		if !ok {
			return tenant.Identity{}, http.StatusForbidden, "forbidden"
		}
		return tenant.Organization(id), 0, ""
	}
}
