// Package grpc exposes the account service over gRPC: request handlers,
// authentication, validation, logging and metrics interceptors, and the
// translation of service errors into gRPC status codes.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/accounts/internal/api"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/metrics"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/services"
	"google.golang.org/grpc"
)

// AccountCore is the business layer behind the handlers.
type AccountCore interface {
	Register(ctx context.Context, in services.RegisterInput) (string, error)
	Login(ctx context.Context, account, password string) (string, error)
	Refresh(ctx context.Context, identity models.PublicView) (string, error)
	UpdateProfile(ctx context.Context, identity models.PublicView, originalPassword string, ch services.ProfileChanges) (string, error)
	DeleteAccount(ctx context.Context, identity models.PublicView, password string) error
	GetUser(ctx context.Context, id uint64) (models.PublicView, error)
}

// TokenValidator turns a bearer token into the identity it carries.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (models.PublicView, error)
}

type GRPCServer struct {
	address  string
	accounts AccountCore
	tokens   TokenValidator
	metrics  *metrics.Metrics
	logger   logging.Logger
}

// NewGRPCServer builds the transport. m may be nil to disable metrics.
func NewGRPCServer(a string, l logging.Logger, accounts AccountCore, tokens TokenValidator, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
		tokens:   tokens,
		metrics:  m,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(api.Codec{}),
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.metricsInterceptor,
			s.errorInterceptor,
			s.authInterceptor,
			s.validationInterceptor,
		),
	)
	api.RegisterAccountServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
