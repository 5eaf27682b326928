// Package web serves the HTML interface: registration and login, personal
// and shared todos, groups with their members and items, and the admin pages.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/service"
	"github.com/mmynk/groupdo/internal/storage"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Auth     auth.Authenticator
	Sessions *auth.Sessions
	Store    storage.Store
	Todos    *service.TodoService
	Groups   *service.GroupService
	Admin    *service.AdminService
}

// Server holds the HTML handlers.
type Server struct {
	auth     auth.Authenticator
	sessions *auth.Sessions
	store    storage.Store
	todos    *service.TodoService
	groups   *service.GroupService
	admin    *service.AdminService
	pages    *pages
}

// NewServer parses the templates and returns a Server.
func NewServer(d Deps) (*Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Server{
		auth:     d.Auth,
		sessions: d.Sessions,
		store:    d.Store,
		todos:    d.Todos,
		groups:   d.Groups,
		admin:    d.Admin,
		pages:    p,
	}, nil
}

// Register adds every HTML route to mux.
func (s *Server) Register(mux *http.ServeMux) {
	login := middleware.RequireLogin
	admin := middleware.RequireAdmin(http.HandlerFunc(s.forbidden))

	mux.HandleFunc("GET /{$}", s.registerForm)
	mux.HandleFunc("POST /{$}", s.register)
	mux.HandleFunc("GET /login", s.loginForm)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /logout", s.logout)

	mux.Handle("GET /database", admin(http.HandlerFunc(s.database)))
	mux.Handle("GET /resetdb", admin(http.HandlerFunc(s.resetForm)))
	mux.Handle("POST /resetdb", admin(http.HandlerFunc(s.reset)))

	mux.Handle("GET /todo", login(http.HandlerFunc(s.myTodos)))
	mux.Handle("GET /mytodo", login(http.HandlerFunc(s.myTodos)))
	mux.Handle("POST /add", login(http.HandlerFunc(s.addTodo)))
	mux.Handle("POST /remove/{id}", login(http.HandlerFunc(s.removeTodo)))
	mux.Handle("GET /sharedtodo", login(http.HandlerFunc(s.sharedTodos)))
	mux.Handle("GET /share/{id}", login(http.HandlerFunc(s.shareTodo)))
	mux.Handle("POST /share/{id}", login(http.HandlerFunc(s.shareTodo)))

	mux.Handle("GET /creategroup", login(http.HandlerFunc(s.createGroupForm)))
	mux.Handle("POST /creategroup", login(http.HandlerFunc(s.createGroup)))
	mux.Handle("POST /joingroup", login(http.HandlerFunc(s.joinGroup)))
	mux.Handle("POST /addToGroup/{id}", login(http.HandlerFunc(s.addMember)))
	mux.Handle("POST /removeFromGroup/{id}", login(http.HandlerFunc(s.removeMember)))
	mux.Handle("GET /mygroups", login(http.HandlerFunc(s.myGroups)))
	mux.Handle("GET /mygroups/{name}", login(http.HandlerFunc(s.viewGroup)))
	mux.Handle("POST /mygroups/{name}", login(http.HandlerFunc(s.addItem)))

	mux.HandleFunc("GET /healthz", s.healthz)
}

// Handler registers the routes on mux and wraps it in the middleware stack.
// Other handlers (metrics, RPC) may already be registered on mux.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	s.Register(mux)
	return middleware.Chain(mux,
		middleware.Logging,
		middleware.Recover,
		middleware.Session(s.sessions, s.store),
	)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}
