package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/auth"
)

// AuthMiddleware resolves the bearer credential and pins the request to its
// principal. When the route carries a {userId} it must match the principal;
// a caller can never operate on someone else's records.
func AuthMiddleware(az auth.Authorizer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearer(r)
			if err != nil {
				respond.WriteServiceError(w, err)
				return
			}
			p, err := az.Authorize(r.Context(), token)
			if err != nil {
				respond.WriteServiceError(w, err)
				return
			}
			if uid := mux.Vars(r)["userId"]; uid != "" && uid != p.UserID {
				respond.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}
