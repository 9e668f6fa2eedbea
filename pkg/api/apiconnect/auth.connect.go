// Package apiconnect wires the messages in package api to Connect handlers
// and clients. The layout follows connect-go generated code; the JSON codec
// is installed on every handler and client.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitty/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "splitty.v1.AuthService"

const (
	AuthServiceSignupProcedure = "/splitty.v1.AuthService/Signup"
	AuthServiceLoginProcedure  = "/splitty.v1.AuthService/Login"
)

// AuthServiceHandler is implemented by the server.
type AuthServiceHandler interface {
	Signup(context.Context, *connect.Request[api.SignupRequest]) (*connect.Response[api.AuthResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
}

// AuthServiceClient is a client for splitty.v1.AuthService.
type AuthServiceClient interface {
	Signup(context.Context, *connect.Request[api.SignupRequest]) (*connect.Response[api.AuthResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	signup := connect.NewUnaryHandler(AuthServiceSignupProcedure, svc.Signup, opts...)
	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)

	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceSignupProcedure:
			signup.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewAuthServiceClient constructs a client for splitty.v1.AuthService.
// baseURL is the scheme and host, e.g. http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &authServiceClient{
		signup: connect.NewClient[api.SignupRequest, api.AuthResponse](httpClient, baseURL+AuthServiceSignupProcedure, opts...),
		login:  connect.NewClient[api.LoginRequest, api.AuthResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
	}
}

type authServiceClient struct {
	signup *connect.Client[api.SignupRequest, api.AuthResponse]
	login  *connect.Client[api.LoginRequest, api.AuthResponse]
}

func (c *authServiceClient) Signup(ctx context.Context, req *connect.Request[api.SignupRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.signup.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func withHandlerCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}
