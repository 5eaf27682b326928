package middleware

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/storage"
)

// RequireAuth returns a Connect interceptor that requires an authenticated
// caller. A user already resolved by the Session middleware is reused;
// otherwise the bearer token or session cookie in the request headers is
// validated and its user loaded into the context.
func RequireAuth(sessions *auth.Sessions, users storage.UserStore) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if UserFrom(ctx) != nil {
				return next(ctx, req)
			}

			user, err := resolveUser(ctx, sessions, users, req.Header())
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrMissingToken):
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, storage.ErrNotFound):
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			default:
				return nil, connect.NewError(connect.CodeInternal, err)
			}

			return next(WithUser(ctx, user), req)
		}
	}
}
