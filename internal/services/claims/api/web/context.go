package web

import (
	"context"
	"net/http"

	"github.com/louisbranch/reimburse/internal/services/claims/account"
)

type userContextKey struct{}

func withUser(ctx context.Context, user account.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func userFromContext(r *http.Request) (account.User, bool) {
	user, ok := r.Context().Value(userContextKey{}).(account.User)
	return user, ok
}
