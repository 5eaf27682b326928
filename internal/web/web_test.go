package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/service"
	"github.com/mmynk/groupdo/internal/storage/sqlstore"
)

// setupTestServer runs the full HTML stack over a fresh SQLite database.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv, err := NewServer(Deps{
		Auth:     auth.NewPasswordAuthenticator(store, auth.WithCost(bcrypt.MinCost)),
		Sessions: auth.NewSessions(auth.NewJWTManager("test-secret", time.Hour), false),
		Store:    store,
		Todos:    service.NewTodoService(store),
		Groups:   service.NewGroupService(store, service.WithPasswordCost(bcrypt.MinCost)),
		Admin:    service.NewAdminService(store),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	ts := httptest.NewServer(srv.Handler(http.NewServeMux()))
	t.Cleanup(ts.Close)
	return ts
}

// browser is an HTTP client with its own cookie jar that follows redirects.
type browser struct {
	t    *testing.T
	c    *http.Client
	base string
}

func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &browser{t: t, c: &http.Client{Jar: jar}, base: ts.URL}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()

	resp, err := b.c.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatal(err)
	}
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	if err != nil {
		b.t.Fatal(err)
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		b.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// signup registers and logs in username with a derived password.
func (b *browser) signup(username string) {
	b.t.Helper()

	resp, body := b.post("/", url.Values{"username": {username}, "password": {"pw-" + username}})
	if resp.Request.URL.Path != "/login" || !strings.Contains(body, "Registered!") {
		b.t.Fatalf("register %s: ended on %s", username, resp.Request.URL)
	}
	resp, _ = b.post("/login", url.Values{"username": {username}, "password": {"pw-" + username}})
	if resp.Request.URL.Path != "/mytodo" {
		b.t.Fatalf("login %s: ended on %s", username, resp.Request.URL)
	}
}

func expect(t *testing.T, resp *http.Response, body string, code int, wants ...string) {
	t.Helper()

	if resp.StatusCode != code {
		t.Errorf("%s: expected status %d, got %d", resp.Request.URL.Path, code, resp.StatusCode)
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("%s: expected %q in body", resp.Request.URL.Path, want)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)
	b := newBrowser(t, ts)

	resp, body := b.get("/")
	expect(t, resp, body, http.StatusOK, `name="username"`)

	b.signup("alice")

	other := newBrowser(t, ts)
	resp, body = other.post("/", url.Values{"username": {"alice"}, "password": {"x"}})
	expect(t, resp, body, http.StatusConflict, "That username is taken.")

	resp, body = other.post("/", url.Values{"username": {"a"}, "password": {"x"}})
	expect(t, resp, body, http.StatusBadRequest, "Username must be 2 to 20 characters")

	resp, body = other.post("/login", url.Values{"username": {"nobody"}, "password": {"x"}})
	expect(t, resp, body, http.StatusUnauthorized, "No such user registered.")

	resp, body = other.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	expect(t, resp, body, http.StatusUnauthorized, "Incorrect password / username.")

	resp, _ = b.get("/logout")
	if resp.Request.URL.Path != "/login" {
		t.Errorf("logout: expected /login, got %s", resp.Request.URL.Path)
	}
	resp, _ = b.get("/mytodo")
	if resp.Request.URL.Path != "/login" {
		t.Errorf("expected logged-out browser on /login, got %s", resp.Request.URL.Path)
	}
}

func TestLoginRedirectsToNext(t *testing.T) {
	ts := setupTestServer(t)
	b := newBrowser(t, ts)
	b.signup("alice")
	b.get("/logout")

	resp, body := b.get("/sharedtodo")
	if resp.Request.URL.Path != "/login" || resp.Request.URL.Query().Get("next") != "/sharedtodo" {
		t.Fatalf("expected login with next, got %s", resp.Request.URL)
	}
	expect(t, resp, body, http.StatusOK, `value="/sharedtodo"`)

	resp, _ = b.post("/login", url.Values{"username": {"alice"}, "password": {"pw-alice"}, "next": {"/sharedtodo"}})
	if resp.Request.URL.Path != "/sharedtodo" {
		t.Errorf("expected /sharedtodo after login, got %s", resp.Request.URL.Path)
	}

	b.get("/logout")
	resp, _ = b.post("/login", url.Values{"username": {"alice"}, "password": {"pw-alice"}, "next": {"//evil.example"}})
	if resp.Request.URL.Path != "/mytodo" {
		t.Errorf("expected off-site next to fall back to /mytodo, got %s", resp.Request.URL)
	}
}

func TestTodoFlow(t *testing.T) {
	ts := setupTestServer(t)
	alice := newBrowser(t, ts)
	alice.signup("alice")
	bob := newBrowser(t, ts)
	bob.signup("bob")

	resp, body := alice.post("/add", url.Values{"item": {"buy milk"}})
	expect(t, resp, body, http.StatusOK, "buy milk", `action="/share/1"`)

	resp, body = bob.get("/todo")
	if strings.Contains(body, "buy milk") {
		t.Error("bob should not see alice's private todo")
	}

	resp, body = bob.post("/share/1", nil)
	expect(t, resp, body, http.StatusForbidden, "not allowed")

	resp, body = alice.post("/share/1", nil)
	expect(t, resp, body, http.StatusOK, "Shared.", "buy milk", "by alice")

	resp, body = bob.get("/sharedtodo")
	expect(t, resp, body, http.StatusOK, "buy milk")

	resp, body = bob.post("/remove/1", nil)
	expect(t, resp, body, http.StatusForbidden)

	resp, body = alice.post("/remove/1", nil)
	expect(t, resp, body, http.StatusOK, "Removed.")
	if strings.Contains(body, "buy milk") {
		t.Error("expected removed todo to disappear")
	}

	resp, body = alice.post("/remove/1", nil)
	expect(t, resp, body, http.StatusOK, "not found")

	resp, body = alice.post("/add", url.Values{"item": {"   "}})
	expect(t, resp, body, http.StatusOK, "Invalid input")
}

func TestGroupFlow(t *testing.T) {
	ts := setupTestServer(t)
	alice := newBrowser(t, ts)
	alice.signup("alice")
	bob := newBrowser(t, ts)
	bob.signup("bob")
	carol := newBrowser(t, ts)
	carol.signup("carol")

	resp, body := alice.post("/creategroup", url.Values{"name": {"book-club"}, "password": {"s3cret"}})
	if resp.Request.URL.Path != "/mygroups/book-club" {
		t.Fatalf("expected group page, got %s", resp.Request.URL)
	}
	expect(t, resp, body, http.StatusOK, "Group created.", "alice", "No items yet.")

	resp, body = carol.post("/creategroup", url.Values{"name": {"book-club"}, "password": {"x"}})
	expect(t, resp, body, http.StatusOK, "That group name is taken")

	resp, body = carol.post("/creategroup", url.Values{"name": {".."}, "password": {"x"}})
	if resp.Request.URL.Path != "/creategroup" {
		t.Errorf("expected return to the create form, got %s", resp.Request.URL)
	}
	expect(t, resp, body, http.StatusOK, "may not be . or ..")
	resp, body = carol.get("/mygroups")
	if strings.Contains(body, `href="/mygroups/.."`) {
		t.Error("expected no group named ..")
	}

	resp, body = alice.post("/addToGroup/1", url.Values{"chosenUser": {"bob"}})
	expect(t, resp, body, http.StatusOK, "Added bob.")

	resp, body = alice.post("/addToGroup/1", url.Values{"chosenUser": {"mallory"}})
	if resp.Request.URL.Path != "/mygroups/book-club" {
		t.Errorf("expected return to group page, got %s", resp.Request.URL)
	}
	expect(t, resp, body, http.StatusOK, "no such user")

	resp, body = bob.get("/mygroups")
	expect(t, resp, body, http.StatusOK, "book-club", "2 members")

	resp, body = bob.post("/mygroups/book-club", url.Values{"name": {"Dune"}, "quantity": {"1200"}})
	expect(t, resp, body, http.StatusOK, "Item added.", "Dune", "1,200", "default.png")

	resp, body = bob.post("/mygroups/book-club", url.Values{"name": {"Emma"}, "quantity": {"lots"}})
	expect(t, resp, body, http.StatusOK, "quantity must be a whole number")

	resp, body = carol.get("/mygroups/book-club")
	expect(t, resp, body, http.StatusForbidden)

	resp, body = carol.get("/mygroups/nowhere")
	expect(t, resp, body, http.StatusNotFound)

	resp, body = carol.post("/joingroup", url.Values{"name": {"book-club"}, "password": {"wrong"}})
	expect(t, resp, body, http.StatusOK, "Incorrect group password")

	resp, body = carol.post("/joingroup", url.Values{"name": {"book-club"}, "password": {"s3cret"}})
	expect(t, resp, body, http.StatusOK, "Joined book-club.", "Dune")

	resp, body = alice.post("/removeFromGroup/1", url.Values{"chosenUser": {"bob"}})
	expect(t, resp, body, http.StatusOK, "Removed bob.")

	resp, body = bob.get("/mygroups/book-club")
	expect(t, resp, body, http.StatusForbidden)
}

func TestAdminPages(t *testing.T) {
	ts := setupTestServer(t)
	alice := newBrowser(t, ts)
	alice.signup("alice")
	admin := newBrowser(t, ts)
	admin.signup(auth.DefaultAdminUsername)

	alice.post("/add", url.Values{"item": {"buy milk"}})
	alice.post("/creategroup", url.Values{"name": {"book-club"}, "password": {"pw"}})

	resp, body := alice.get("/database")
	expect(t, resp, body, http.StatusForbidden)
	resp, body = alice.post("/resetdb", nil)
	expect(t, resp, body, http.StatusForbidden)

	resp, body = admin.get("/database")
	expect(t, resp, body, http.StatusOK, "Users (2)", "alice", "book-club")
	if strings.Contains(body, "$2a$") {
		t.Error("dump must not expose password hashes")
	}

	resp, body = admin.post("/resetdb", nil)
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("expected /login after reset, got %s", resp.Request.URL)
	}
	expect(t, resp, body, http.StatusOK, "Deleted 2 users.")

	resp, _ = alice.get("/mytodo")
	if resp.Request.URL.Path != "/login" {
		t.Errorf("expected deleted user to be logged out, got %s", resp.Request.URL.Path)
	}
}

func TestHealthz(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := newBrowser(t, ts).get("/healthz")
	expect(t, resp, body, http.StatusOK, "ok")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
