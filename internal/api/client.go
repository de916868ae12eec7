package api

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// AccountServiceClient is a typed client for the account service. Every call
// forces the JSON codec, so connections need no extra dial options.
type AccountServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountServiceClient(cc grpc.ClientConnInterface) *AccountServiceClient {
	return &AccountServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *AccountServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *AccountServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *AccountServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodUpdateProfile, in, opts)
}

func (c *AccountServiceClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*DeleteAccountResponse, error) {
	return invoke[DeleteAccountResponse](ctx, c.cc, MethodDeleteAccount, in, opts)
}

func (c *AccountServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*UserView, error) {
	return invoke[UserView](ctx, c.cc, MethodGetUser, in, opts)
}

// WithBearer attaches token to outgoing calls made with the returned context.
func WithBearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, common.TokenType+" "+token)
}

// BearerFromMetadata extracts the token of an "authorization: Bearer <t>"
// entry. The scheme is matched case-insensitively.
func BearerFromMetadata(md metadata.MD) (string, bool) {
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(v), " ")
		if ok && strings.EqualFold(scheme, common.TokenType) {
			if token = strings.TrimSpace(token); token != "" {
				return token, true
			}
		}
	}
	return "", false
}
