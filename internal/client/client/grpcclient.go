package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/accounts/internal/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// accountAPI is the subset of api.AccountServiceClient used here.
type accountAPI interface {
	Register(ctx context.Context, in *api.RegisterRequest, opts ...grpc.CallOption) (*api.TokenResponse, error)
	Login(ctx context.Context, in *api.LoginRequest, opts ...grpc.CallOption) (*api.TokenResponse, error)
	Refresh(ctx context.Context, in *api.RefreshRequest, opts ...grpc.CallOption) (*api.TokenResponse, error)
	UpdateProfile(ctx context.Context, in *api.UpdateProfileRequest, opts ...grpc.CallOption) (*api.TokenResponse, error)
	DeleteAccount(ctx context.Context, in *api.DeleteAccountRequest, opts ...grpc.CallOption) (*api.DeleteAccountResponse, error)
	GetUser(ctx context.Context, in *api.GetUserRequest, opts ...grpc.CallOption) (*api.UserView, error)
}

// GRPCClient talks to the account service. Calls made while a token is set
// carry it as a bearer credential; calls returning a token replace it.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      accountAPI

	mu          sync.RWMutex
	accessToken string
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.Token(); token != "" {
		ctx = api.WithBearer(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewAccountsClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// InitGRPCClient creates the connection. Extra options are appended to the
// insecure transport and the token interceptor.
func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewAccountServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) keep(resp *api.TokenResponse, err error) (string, error) {
	if err != nil {
		return "", s.mapError(err)
	}
	s.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func (s *GRPCClient) Register(ctx context.Context, req *api.RegisterRequest) (string, error) {
	return s.keep(s.client.Register(ctx, req))
}

func (s *GRPCClient) Login(ctx context.Context, account string, password []byte) (string, error) {
	req := &api.LoginRequest{Account: account, Password: string(password)}
	return s.keep(s.client.Login(ctx, req))
}

func (s *GRPCClient) Refresh(ctx context.Context) (string, error) {
	if s.Token() == "" {
		return "", ErrNoSession
	}
	return s.keep(s.client.Refresh(ctx, &api.RefreshRequest{}))
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (string, error) {
	if s.Token() == "" {
		return "", ErrNoSession
	}
	return s.keep(s.client.UpdateProfile(ctx, req))
}

// DeleteAccount removes the account the current token belongs to and forgets
// the token.
func (s *GRPCClient) DeleteAccount(ctx context.Context, password []byte) error {
	if s.Token() == "" {
		return ErrNoSession
	}
	if _, err := s.client.DeleteAccount(ctx, &api.DeleteAccountRequest{Password: string(password)}); err != nil {
		return s.mapError(err)
	}
	s.SetToken("")
	return nil
}

func (s *GRPCClient) GetUser(ctx context.Context, uid string) (*api.UserView, error) {
	u, err := s.client.GetUser(ctx, &api.GetUserRequest{UID: uid})
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrWrongPassword
	case codes.AlreadyExists:
		return ErrConflict
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
