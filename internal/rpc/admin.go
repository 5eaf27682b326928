// Package rpc exposes token login and the admin dump over Connect. Messages
// are the well-known Empty and Struct types, so no generated code is involved.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/service"
	"github.com/mmynk/groupdo/internal/storage"
)

const (
	// AdminServiceName is the fully-qualified name of the admin service.
	AdminServiceName = "groupdo.admin.v1.AdminService"

	// AdminServiceDumpProcedure is the path of the Dump RPC.
	AdminServiceDumpProcedure = "/" + AdminServiceName + "/Dump"
)

// AdminService serves the admin RPCs.
type AdminService struct {
	admin *service.AdminService
}

// NewAdminService creates an AdminService backed by admin.
func NewAdminService(admin *service.AdminService) *AdminService {
	return &AdminService{admin: admin}
}

// NewAdminServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on. Callers are authenticated from their bearer token or
// session cookie and every call is logged.
func NewAdminServiceHandler(svc *AdminService, sessions *auth.Sessions, users storage.UserStore, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithInterceptors(
			middleware.LoggingInterceptor(),
			middleware.RequireAuth(sessions, users),
		),
	}, opts...)

	dump := connect.NewUnaryHandler(AdminServiceDumpProcedure, svc.Dump, opts...)
	return "/" + AdminServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AdminServiceDumpProcedure:
			dump.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Dump returns every user and group as {"users": [...], "groups": [...]}.
func (s *AdminService) Dump(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	dump, err := s.admin.DumpAll(ctx, middleware.UserFrom(ctx))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return nil, connect.NewError(connect.CodePermissionDenied, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	msg, err := dumpToStruct(dump)
	if err != nil {
		slog.Error("Failed to encode dump", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func dumpToStruct(dump *service.Dump) (*structpb.Struct, error) {
	users := make([]any, len(dump.Users))
	for i, u := range dump.Users {
		users[i] = map[string]any{
			"id":         u.ID,
			"username":   u.Username,
			"role":       string(u.Role),
			"created_at": u.CreatedAt,
		}
	}

	groups := make([]any, len(dump.Groups))
	for i, g := range dump.Groups {
		members := make([]any, len(g.Members))
		for j, m := range g.Members {
			members[j] = m
		}
		groups[i] = map[string]any{
			"id":         g.ID,
			"name":       g.Name,
			"members":    members,
			"created_at": g.CreatedAt,
		}
	}

	return structpb.NewStruct(map[string]any{
		"users":  users,
		"groups": groups,
	})
}
