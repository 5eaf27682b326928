package web

import (
	"net/http"

	"github.com/dustin/go-humanize/english"

	"github.com/mmynk/groupdo/internal/middleware"
)

func (s *Server) database(w http.ResponseWriter, r *http.Request) {
	dump, err := s.admin.DumpAll(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.render(w, r, http.StatusOK, "database", page{Title: "Database", Dump: dump})
}

func (s *Server) resetForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "resetdb", page{Title: "Reset users"})
}

// reset deletes every user. The admin's own account goes too, so the session
// is ended and the browser sent to the login page.
func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	n, err := s.admin.ResetUsers(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "/database")
		return
	}
	s.sessions.Logout(w)
	redirectWithFlash(w, r, "/login", "Deleted "+english.Plural(int(n), "user", "")+".")
}
