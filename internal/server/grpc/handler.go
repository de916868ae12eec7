package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accounts/internal/api"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/idgen"
	"github.com/dmitrijs2005/accounts/internal/server/services"
)

func tokenResponse(token string) *api.TokenResponse {
	return &api.TokenResponse{AccessToken: token, TokenType: common.TokenType}
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.TokenResponse, error) {
	token, err := s.accounts.Register(ctx, services.RegisterInput{
		Name:     req.Name,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Age:      req.Age,
	})
	if err != nil {
		return nil, err
	}
	return tokenResponse(token), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenResponse, error) {
	token, err := s.accounts.Login(ctx, req.Account, req.Password)
	if err != nil {
		return nil, err
	}
	return tokenResponse(token), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, _ *api.RefreshRequest) (*api.TokenResponse, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return nil, common.ErrInvalidToken
	}
	token, err := s.accounts.Refresh(ctx, identity)
	if err != nil {
		return nil, err
	}
	return tokenResponse(token), nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.TokenResponse, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return nil, common.ErrInvalidToken
	}
	token, err := s.accounts.UpdateProfile(ctx, identity, req.OriginalPassword, services.ProfileChanges{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Age:      req.Age,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return tokenResponse(token), nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, req *api.DeleteAccountRequest) (*api.DeleteAccountResponse, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return nil, common.ErrInvalidToken
	}
	if err := s.accounts.DeleteAccount(ctx, identity, req.Password); err != nil {
		return nil, err
	}
	return &api.DeleteAccountResponse{}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *api.GetUserRequest) (*api.UserView, error) {
	id, err := idgen.Parse(req.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: uid: %w", common.ErrValidation, err)
	}
	v, err := s.accounts.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &api.UserView{
		UID:    v.ID,
		Name:   v.Name,
		Email:  v.Email,
		Phone:  v.Phone,
		Gender: v.Gender,
		Age:    v.Age,
	}, nil
}
