package rpc

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/groupdo/internal/auth"
)

func loginRequest(t *testing.T, username, password string) *connect.Request[structpb.Struct] {
	t.Helper()

	msg, err := structpb.NewStruct(map[string]any{"username": username, "password": password})
	if err != nil {
		t.Fatal(err)
	}
	return connect.NewRequest(msg)
}

func TestLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantCode connect.Code
	}{
		{"missing password", "alice", "", connect.CodeInvalidArgument},
		{"unknown user", "nobody", "pw", connect.CodeUnauthenticated},
		{"wrong password", "alice", "nope", connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.login.CallUnary(ctx, loginRequest(t, tt.username, tt.password))
			if connect.CodeOf(err) != tt.wantCode {
				t.Errorf("expected %v, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestLoginTokenAuthorizesCalls(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	resp, err := env.login.CallUnary(ctx, loginRequest(t, auth.DefaultAdminUsername, "pw"))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token := resp.Msg.GetFields()["token"].GetStringValue()
	if token == "" {
		t.Fatal("expected a token")
	}
	if resp.Msg.GetFields()["expires_at"].GetStringValue() == "" {
		t.Error("expected expires_at")
	}

	req := connect.NewRequest(&emptypb.Empty{})
	req.Header().Set("Authorization", "Bearer "+token)
	me, err := env.whoAmI.CallUnary(ctx, req)
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	fields := me.Msg.GetFields()
	if fields["username"].GetStringValue() != auth.DefaultAdminUsername || fields["role"].GetStringValue() != "admin" {
		t.Errorf("unexpected caller: %v", me.Msg.AsMap())
	}

	if _, err := env.dump(t, token); err != nil {
		t.Errorf("Dump with login token failed: %v", err)
	}
}

func TestWhoAmI_RequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.whoAmI.CallUnary(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
}
