package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "accounts.v1.AccountService"

const (
	MethodRegister      = "Register"
	MethodLogin         = "Login"
	MethodRefresh       = "Refresh"
	MethodUpdateProfile = "UpdateProfile"
	MethodDeleteAccount = "DeleteAccount"
	MethodGetUser       = "GetUser"
)

// FullMethod returns the gRPC path of method, e.g. "/accounts.v1.AccountService/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AccountServiceServer is implemented by the transport layer.
type AccountServiceServer interface {
	Register(context.Context, *RegisterRequest) (*TokenResponse, error)
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*TokenResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*DeleteAccountResponse, error)
	GetUser(context.Context, *GetUserRequest) (*UserView, error)
}

func unary[Req, Resp any](method string, call func(AccountServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AccountServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the account service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, AccountServiceServer.Register),
		unary(MethodLogin, AccountServiceServer.Login),
		unary(MethodRefresh, AccountServiceServer.Refresh),
		unary(MethodUpdateProfile, AccountServiceServer.UpdateProfile),
		unary(MethodDeleteAccount, AccountServiceServer.DeleteAccount),
		unary(MethodGetUser, AccountServiceServer.GetUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "accounts/v1/accounts.json",
}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
