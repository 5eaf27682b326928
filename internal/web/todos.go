package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/service"
)

func (s *Server) myTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos.ListOwn(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.render(w, r, http.StatusOK, "todo", page{Title: "My todos", Todos: todos})
}

func (s *Server) addTodo(w http.ResponseWriter, r *http.Request) {
	_, err := s.todos.Add(r.Context(), middleware.UserFrom(r.Context()), r.PostFormValue("item"))
	if err != nil {
		s.fail(w, r, err, "/mytodo")
		return
	}
	http.Redirect(w, r, "/mytodo", http.StatusSeeOther)
}

func (s *Server) removeTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "/mytodo")
		return
	}
	if err := s.todos.Remove(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		s.fail(w, r, err, "/mytodo")
		return
	}
	redirectWithFlash(w, r, "/mytodo", "Removed.")
}

func (s *Server) shareTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.todos.MarkShared(r.Context(), middleware.UserFrom(r.Context()), id)
	}
	if err != nil {
		s.fail(w, r, err, "/mytodo")
		return
	}
	redirectWithFlash(w, r, "/sharedtodo", "Shared.")
}

func (s *Server) sharedTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos.ListShared(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.render(w, r, http.StatusOK, "shared", page{Title: "Shared todos", Todos: todos})
}

// pathID parses the {id} wildcard. A malformed id is reported as not found.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", raw, service.ErrNotFound)
	}
	return id, nil
}
