package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/settle/internal/http/respond"
)

type contextKey string

const operatorKey contextKey = "operator"

// Middleware rejects requests without a valid bearer token signed with secret.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.Unauthorized(w, "bearer token required")
				return
			}

			claims, err := Verify(secret, token)
			if err != nil {
				respond.Unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, claims.Operator())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFrom returns the operator set by Middleware, if any.
func OperatorFrom(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey).(string)
	return op
}
