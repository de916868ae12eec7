package client

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/api"
)

type Client interface {
	Close() error
	Token() string
	SetToken(token string)
	Register(ctx context.Context, req *api.RegisterRequest) (string, error)
	Login(ctx context.Context, account string, password []byte) (string, error)
	Refresh(ctx context.Context) (string, error)
	UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (string, error)
	DeleteAccount(ctx context.Context, password []byte) error
	GetUser(ctx context.Context, uid string) (*api.UserView, error)
}
