package auth

import (
	"context"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

type identityService struct {
	deps Deps
}

// NewIdentityService crea el service de sign-in local.
func NewIdentityService(deps Deps) IdentityService {
	return &identityService{deps: deps.withDefaults()}
}

func (s *identityService) Supported() bool {
	_, ok := identity.AsPasswordSigner(s.deps.Identity)
	return ok
}

// SignIn valida email/password en el proveedor y devuelve un ID token para
// usar como tokenAuth en /auth/login.
func (s *identityService) SignIn(ctx context.Context, in dto.IdentityTokenRequest) (*dto.IdentityTokenResponse, error) {
	ps, ok := identity.AsPasswordSigner(s.deps.Identity)
	if !ok {
		return nil, ErrSignInNotSupported
	}
	tok, err := ps.SignInWithPassword(ctx, identity.NormalizeEmail(in.Email), in.Password)
	if err != nil {
		logger.From(ctx).Debug("identity sign-in failed",
			logger.Layer("service"),
			logger.Component("auth.identity"),
			logger.Err(err),
		)
		return nil, err
	}
	return &dto.IdentityTokenResponse{IDToken: tok}, nil
}
