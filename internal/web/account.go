package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/metrics"
)

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", page{Title: "Register"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.auth.Register(r.Context(), username, password)
	if err != nil {
		status, msg, result := http.StatusInternalServerError, "Registration failed. Please try again.", "error"
		switch {
		case errors.Is(err, auth.ErrDuplicateUsername):
			status, msg, result = http.StatusConflict, "That username is taken.", "duplicate"
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrMissingPassword):
			status, msg, result = http.StatusBadRequest, capitalize(err.Error())+".", "invalid"
		default:
			slog.Error("Registration failed", "username", username, "error", err)
		}
		metrics.Registration(result)
		s.render(w, r, status, "register", page{
			Title: "Register",
			Flash: msg,
			Form:  map[string]string{"username": username},
		})
		return
	}

	metrics.Registration("ok")
	slog.Info("User registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	redirectWithFlash(w, r, "/login", "Registered!")
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", page{
		Title: "Log in",
		Next:  r.URL.Query().Get("next"),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	next := r.PostFormValue("next")

	user, err := s.auth.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		status, msg, result := http.StatusInternalServerError, "Login failed. Please try again.", "error"
		switch {
		case errors.Is(err, auth.ErrNoSuchUser):
			status, msg, result = http.StatusUnauthorized, "No such user registered.", "no_such_user"
		case errors.Is(err, auth.ErrBadCredentials):
			status, msg, result = http.StatusUnauthorized, "Incorrect password / username.", "bad_credentials"
		default:
			slog.Error("Login failed", "username", username, "error", err)
		}
		metrics.LoginAttempt(result)
		s.render(w, r, status, "login", page{
			Title: "Log in",
			Flash: msg,
			Next:  next,
			Form:  map[string]string{"username": username},
		})
		return
	}

	if err := s.sessions.Login(w, user); err != nil {
		metrics.LoginAttempt("error")
		s.fail(w, r, err, "/login")
		return
	}

	metrics.LoginAttempt("ok")
	slog.Info("User logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, auth.SafeRedirect(next, "/mytodo"), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
