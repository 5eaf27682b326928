package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/metrics"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
	"github.com/mmynk/groupdo/internal/storage/sqlstore"
)

func setupSessions(t *testing.T) (*auth.Sessions, *sqlstore.SQLStore) {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "mw.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return auth.NewSessions(auth.NewJWTManager("test-secret", time.Hour), false), store
}

func sessionCookie(t *testing.T, sessions *auth.Sessions, user *models.User) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	if err := sessions.Login(w, user); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return w.Result().Cookies()[0]
}

func TestLogging(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		if RequestIDFrom(r.Context()) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusTeapot)
	})
	h := Logging(Recover(mux))

	t.Run("generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/1", nil))

		if w.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", w.Code)
		}
		if w.Header().Get(RequestIDHeader) == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("echoes incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/things/2", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected abc-123, got %q", got)
		}
	})

	t.Run("records route pattern", func(t *testing.T) {
		w := httptest.NewRecorder()
		metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		want := `groupdo_http_requests_total{code="418",method="GET",route="GET /things/{id}"}`
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("expected %s in exposition", want)
		}
	})
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestSession(t *testing.T) {
	sessions, store := setupSessions(t)
	ctx := context.Background()

	alice := models.NewUser("alice", "hash", models.RoleStandard)
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	cookie := sessionCookie(t, sessions, alice)

	var seen *models.User
	h := Session(sessions, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
	}))

	t.Run("anonymous", func(t *testing.T) {
		seen = nil
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if seen != nil {
			t.Errorf("expected no user, got %v", seen)
		}
	})

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen == nil || seen.Username != "alice" {
			t.Errorf("expected alice, got %v", seen)
		}
	})

	t.Run("tampered cookie is cleared", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: cookie.Value + "x"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if seen != nil {
			t.Errorf("expected no user, got %v", seen)
		}
		if !strings.Contains(w.Header().Get("Set-Cookie"), "Max-Age=0") {
			t.Errorf("expected cookie to be cleared, got %q", w.Header().Get("Set-Cookie"))
		}
	})

	t.Run("deleted user is logged out", func(t *testing.T) {
		if _, err := store.DeleteAllUsers(ctx); err != nil {
			t.Fatalf("DeleteAllUsers failed: %v", err)
		}
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != nil {
			t.Errorf("expected no user after reset, got %v", seen)
		}
	})
}

// panickingUsers fails every session lookup with a panic.
type panickingUsers struct {
	storage.UserStore
}

func (panickingUsers) GetUserByID(context.Context, int64) (*models.User, error) {
	panic("store unavailable")
}

func TestServerStack(t *testing.T) {
	sessions, store := setupSessions(t)
	alice := models.NewUser("alice", "hash", models.RoleStandard)
	if err := store.CreateUser(context.Background(), alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	cookie := sessionCookie(t, sessions, alice)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			t.Error("expected session user in handler context")
		}
		w.WriteHeader(http.StatusAccepted)
	})

	serve := func(users storage.UserStore) *httptest.ResponseRecorder {
		logs.Reset()
		h := Chain(mux, Logging, Recover, Session(sessions, users))
		req := httptest.NewRequest(http.MethodGet, "/notes/7", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("route and user reach the access log", func(t *testing.T) {
		w := serve(store)
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", w.Code)
		}
		for _, want := range []string{`"route":"GET /notes/{id}"`, `"user":"alice"`, `"status":202`} {
			if !strings.Contains(logs.String(), want) {
				t.Errorf("expected %s in log output:\n%s", want, logs.String())
			}
		}
	})

	t.Run("panic while resolving the session is recovered", func(t *testing.T) {
		w := serve(panickingUsers{})
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		for _, want := range []string{`"msg":"Handler panic"`, `"msg":"Request completed"`, `"status":500`} {
			if !strings.Contains(logs.String(), want) {
				t.Errorf("expected %s in log output:\n%s", want, logs.String())
			}
		}
	})
}

func TestGates(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	alice := &models.User{ID: 1, Username: "alice", Role: models.RoleStandard}
	admin := &models.User{ID: 2, Username: "admin", Role: models.RoleAdmin}

	tests := []struct {
		name       string
		handler    http.Handler
		method     string
		user       *models.User
		wantCode   int
		wantHeader string
	}{
		{"login anonymous GET", RequireLogin(ok), http.MethodGet, nil, http.StatusSeeOther, "/login?next=%2Fmytodo%3Fx%3D1"},
		{"login anonymous POST", RequireLogin(ok), http.MethodPost, nil, http.StatusSeeOther, "/login"},
		{"login user", RequireLogin(ok), http.MethodGet, alice, http.StatusNoContent, ""},
		{"admin anonymous", RequireAdmin(nil)(ok), http.MethodGet, nil, http.StatusSeeOther, "/login?next=%2Fmytodo%3Fx%3D1"},
		{"admin standard user", RequireAdmin(nil)(ok), http.MethodGet, alice, http.StatusForbidden, ""},
		{"admin admin", RequireAdmin(nil)(ok), http.MethodGet, admin, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/mytodo?x=1", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if tt.wantHeader != "" && w.Header().Get("Location") != tt.wantHeader {
				t.Errorf("expected Location %q, got %q", tt.wantHeader, w.Header().Get("Location"))
			}
		})
	}
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.NotFoundHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("unexpected order: %v", order)
	}
}
