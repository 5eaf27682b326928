package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/metrics"
	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

const (
	// AuthServiceName is the fully-qualified name of the auth service.
	AuthServiceName = "groupdo.auth.v1.AuthService"

	AuthServiceLoginProcedure  = "/" + AuthServiceName + "/Login"
	AuthServiceWhoAmIProcedure = "/" + AuthServiceName + "/WhoAmI"
)

// AuthService issues bearer tokens for RPC clients.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// NewAuthServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on. Login is open; WhoAmI requires a token.
func NewAuthServiceHandler(svc *AuthService, sessions *auth.Sessions, users storage.UserStore, opts ...connect.HandlerOption) (string, http.Handler) {
	logged := append([]connect.HandlerOption{connect.WithInterceptors(middleware.LoggingInterceptor())}, opts...)
	authed := append([]connect.HandlerOption{connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.RequireAuth(sessions, users),
	)}, opts...)

	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, logged...)
	whoAmI := connect.NewUnaryHandler(AuthServiceWhoAmIProcedure, svc.WhoAmI, authed...)
	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case AuthServiceWhoAmIProcedure:
			whoAmI.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Login takes {"username", "password"} and returns {"token", "expires_at", "user"}.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	username := fields["username"].GetStringValue()
	password := fields["password"].GetStringValue()

	if username == "" || password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("username and password are required"))
	}

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		slog.Warn("RPC login failed", "username", username, "error", err)
		switch {
		case errors.Is(err, auth.ErrNoSuchUser):
			metrics.LoginAttempt("no_such_user")
		case errors.Is(err, auth.ErrBadCredentials):
			metrics.LoginAttempt("bad_credentials")
		default:
			metrics.LoginAttempt("error")
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrBadCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	msg, err := structpb.NewStruct(map[string]any{
		"token":      token,
		"expires_at": time.Now().Add(s.jwtManager.Duration()).UTC().Format(time.RFC3339),
		"user":       userFields(user),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	metrics.LoginAttempt("ok")
	slog.Info("User logged in over RPC", "user_id", user.ID, "username", user.Username)
	return connect.NewResponse(msg), nil
}

// WhoAmI returns the authenticated caller.
func (s *AuthService) WhoAmI(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	user := middleware.UserFrom(ctx)
	if user == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	msg, err := structpb.NewStruct(userFields(user))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func userFields(u *models.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"role":       string(u.Role),
		"created_at": u.CreatedAt,
	}
}
