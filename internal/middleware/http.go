package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/metrics"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging assigns a request id, logs every request on completion and records
// it in the HTTP metrics. The route label is the ServeMux pattern. Middleware
// between Logging and the mux that replaces the request must copy Pattern
// back, as Session does.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rl := &requestLog{}
		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		r = r.WithContext(context.WithValue(ctx, requestLogKey, rl))
		m := httpsnoop.CaptureMetrics(next, w, r)

		metrics.ObserveRequest(r.Method, r.Pattern, m.Code, m.Duration)

		level := slog.LevelInfo
		switch {
		case m.Code >= 500:
			level = slog.LevelError
		case r.URL.Path == "/metrics" || r.URL.Path == "/healthz":
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", m.Code,
			"bytes", m.Written,
			"duration_ms", m.Duration.Milliseconds(),
			"user", rl.user,
			"request_id", id,
		)
	})
}

// Recover turns a panic in next into a logged 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("Handler panic",
				"panic", rec,
				"path", r.URL.Path,
				"request_id", RequestIDFrom(r.Context()),
				"stack", string(debug.Stack()),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// Session resolves the session cookie to a user and stores it in the request
// context. The user is re-read from the store on every request, so a deleted
// account is treated as logged out and its cookie is cleared. The route
// pattern matched below is copied back onto r for Logging.
func Session(sessions *auth.Sessions, users storage.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inner := r
			user, err := resolveUser(r.Context(), sessions, users, r.Header)
			switch {
			case err == nil:
				inner = r.WithContext(WithUser(r.Context(), user))
				if rl := requestLogFrom(r.Context()); rl != nil {
					rl.user = user.Username
				}
			case errors.Is(err, auth.ErrMissingToken):
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, storage.ErrNotFound):
				sessions.Logout(w)
			default:
				slog.Error("Failed to load session user", "error", err, "path", r.URL.Path)
			}
			defer func() { r.Pattern = inner.Pattern }()
			next.ServeHTTP(w, inner)
		})
	}
}

// RequireLogin redirects anonymous requests to the login page. GET requests
// carry their path in the next parameter so login can return to it.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects anonymous requests to the login page and hands
// authenticated non-admins to denied. A nil denied answers with a bare 403.
func RequireAdmin(denied http.Handler) func(http.Handler) http.Handler {
	if denied == nil {
		denied = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFrom(r.Context())
			if user == nil {
				redirectToLogin(w, r)
				return
			}
			if !user.IsAdmin() {
				slog.Warn("Admin route denied", "user", user.Username, "path", r.URL.Path)
				denied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// resolveUser validates the token found in h and loads its user.
func resolveUser(ctx context.Context, sessions *auth.Sessions, users storage.UserStore, h http.Header) (*models.User, error) {
	claims, err := sessions.FromHeader(h)
	if err != nil {
		return nil, err
	}
	user, err := users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.Username != claims.Username {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}
