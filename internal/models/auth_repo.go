package models

import (
	"context"
	"fmt"

	"github.com/supabase-community/gotrue-go/types"
)

type AuthRepo interface {
	AuthorizeGoogle(ctx context.Context) (*types.AuthorizeResponse, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

// AuthorizeGoogle starts a PKCE sign-in. The verifier must be kept by the caller
// until the callback exchanges the code.
func (su *SupabaseRepo) AuthorizeGoogle(ctx context.Context) (*types.AuthorizeResponse, error) {
	resp, err := su.supabaseClient.Auth.Authorize(types.AuthorizeRequest{
		Provider: types.ProviderGoogle,
		FlowType: types.FlowPKCE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build google authorization url: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) ExchangeCode(ctx context.Context, code, verifier string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}
