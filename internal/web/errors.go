package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/service"
)

// fail maps a service error to a response. Actions pass the page to return
// to in back, and their validation and lookup failures become a flash message
// there. Views pass an empty back, so a missing entity is a 404 page.
// Forbidden is always a 403 page and anything unrecognised a logged 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		s.forbidden(w, r)
	case errors.Is(err, service.ErrNotFound) && back == "":
		s.render(w, r, http.StatusNotFound, "error", page{Title: "Not found", Message: err.Error()})
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNoSuchUser),
		errors.Is(err, service.ErrDuplicateGroupName),
		errors.Is(err, service.ErrBadGroupPassword):
		if back == "" {
			back = "/mytodo"
		}
		redirectWithFlash(w, r, back, capitalize(err.Error()))
	default:
		slog.Error("Request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.RequestIDFrom(r.Context()),
		)
		s.render(w, r, http.StatusInternalServerError, "error", page{
			Title:   "Something went wrong",
			Message: "The request could not be completed. Please try again.",
		})
	}
}

func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusForbidden, "error", page{
		Title:   "Forbidden",
		Message: "You are not allowed to do that.",
	})
}

// groupPath is the URL of a group's page.
func groupPath(name string) string {
	return "/mygroups/" + url.PathEscape(name)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
