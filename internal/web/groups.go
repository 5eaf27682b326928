package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/service"
)

func (s *Server) myGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListMyGroups(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.render(w, r, http.StatusOK, "groups", page{Title: "My groups", Groups: groups})
}

func (s *Server) createGroupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "creategroup", page{Title: "Create a group"})
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	group, err := s.groups.CreateGroup(r.Context(), middleware.UserFrom(r.Context()), name, r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err, "/creategroup")
		return
	}
	redirectWithFlash(w, r, groupPath(group.Name), "Group created.")
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.JoinGroup(r.Context(), middleware.UserFrom(r.Context()),
		r.PostFormValue("name"), r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err, "/mygroups")
		return
	}
	redirectWithFlash(w, r, groupPath(group.Name), "Joined "+group.Name+".")
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	s.changeMember(w, r, s.groups.AddMember, "Added %s.")
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	s.changeMember(w, r, s.groups.RemoveMember, "Removed %s.")
}

type memberChange func(ctx context.Context, actor *models.User, groupID int64, username string) (*models.Group, error)

// changeMember applies change to the {id} group and the chosenUser form field,
// then returns to the group's page.
func (s *Server) changeMember(w http.ResponseWriter, r *http.Request, change memberChange, done string) {
	username := strings.TrimSpace(r.PostFormValue("chosenUser"))
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "/mygroups")
		return
	}

	group, err := change(r.Context(), middleware.UserFrom(r.Context()), id, username)
	if err != nil {
		back := "/mygroups"
		if g, gerr := s.store.GetGroup(r.Context(), id); gerr == nil {
			back = groupPath(g.Name)
		}
		s.fail(w, r, err, back)
		return
	}
	redirectWithFlash(w, r, groupPath(group.Name), fmt.Sprintf(done, username))
}

func (s *Server) viewGroup(w http.ResponseWriter, r *http.Request) {
	view, err := s.groups.ViewGroup(r.Context(), middleware.UserFrom(r.Context()), r.PathValue("name"))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.render(w, r, http.StatusOK, "group", page{
		Title: view.Group.Name,
		Group: view.Group,
		Items: view.Items,
	})
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	back := groupPath(name)

	quantity := 0
	if raw := strings.TrimSpace(r.PostFormValue("quantity")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: quantity must be a whole number", service.ErrInvalidInput), back)
			return
		}
		quantity = n
	}

	_, err := s.groups.AddItem(r.Context(), middleware.UserFrom(r.Context()),
		name, r.PostFormValue("name"), quantity, r.PostFormValue("image"))
	if errors.Is(err, service.ErrNotFound) {
		back = "/mygroups"
	}
	if err != nil {
		s.fail(w, r, err, back)
		return
	}
	redirectWithFlash(w, r, back, "Item added.")
}
