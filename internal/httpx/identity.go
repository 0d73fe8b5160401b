package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
)

// Headers set by the gateway after it has verified the caller's token.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderUserImage = "X-User-Image"
	HeaderUserRole  = "X-User-Role"
)

type identityKey struct{}

// RequireIdentity rejects requests without a verified caller email.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(HeaderUserEmail))
		if email == "" {
			writeJSON(w, http.StatusUnauthorized, errorResp{Error: "missing caller identity", Code: "unauthorized"})
			return
		}
		role, ok := market.ParseRole(r.Header.Get(HeaderUserRole))
		if !ok {
			role = market.RoleCustomer
		}
		id := market.Identity{
			Name:  r.Header.Get(HeaderUserName),
			Email: strings.ToLower(email),
			Image: r.Header.Get(HeaderUserImage),
			Role:  role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func identityFrom(ctx context.Context) market.Identity {
	id, _ := ctx.Value(identityKey{}).(market.Identity)
	return id
}
