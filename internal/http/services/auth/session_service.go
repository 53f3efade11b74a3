package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellousers/internal/audit"
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/identity"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
	tokens "github.com/dropDatabas3/hellousers/internal/security/token"
	"github.com/dropDatabas3/hellousers/internal/store"
)

const (
	fieldRefreshToken = "refreshToken"
	fieldMetaData     = "metaData"
	fieldStatus       = "status"
	fieldRole         = "role"

	statusActive   = "active"
	statusInactive = "inactive"
)

type sessionService struct {
	deps Deps
}

// NewSessionService crea el service de sesiones.
func NewSessionService(deps Deps) SessionService {
	return &sessionService{deps: deps.withDefaults()}
}

// Login verifica tokenAuth, emite access y refresh, persiste la sesión y
// marca al usuario como activo.
func (s *sessionService) Login(ctx context.Context, in dto.LoginRequest, origin dto.Origin) (*dto.SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Login"),
	)

	tok, err := s.deps.Identity.VerifyIDToken(ctx, in.TokenAuth)
	if err != nil {
		if identity.IsClientError(err) {
			log.Debug("id token rejected", logger.Err(err))
			return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
		}
		return nil, err
	}

	user, err := s.deps.Store.Get(ctx, UsersCollection, tok.UID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	sub := jwtx.Subject{
		UserID:   user.ID,
		Role:     user.String(fieldRole),
		MetaData: jwtx.MetaData{RegisteredIP: origin.ClientIP, UserAgent: origin.UserAgent},
	}
	res, err := s.issue(ctx, sub)
	if err != nil {
		return nil, err
	}

	fields := user.Fields()
	fields[fieldStatus] = statusActive
	if _, err := s.deps.Store.Update(ctx, UsersCollection, user.ID, fields); err != nil {
		return nil, err
	}

	s.deps.Metrics.AuthEvent(metrics.EventLogin)
	log.Info("user logged in", logger.UserID(user.ID))
	audit.Log(ctx, audit.SessionStarted, logger.UserID(user.ID), logger.ClientIP(origin.ClientIP))
	return res, nil
}

// issue firma access + refresh y guarda la sesión (hash del refresh).
func (s *sessionService) issue(ctx context.Context, sub jwtx.Subject) (*dto.SessionResult, error) {
	access, accessExp, err := s.deps.Issuer.SignAccess(sub)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.deps.Issuer.SignRefresh(sub)
	if err != nil {
		return nil, err
	}

	_, err = s.deps.Store.Create(ctx, SessionsCollection(sub.UserID), map[string]any{
		fieldRefreshToken: tokens.SHA256Base64URL(refresh),
		fieldMetaData: map[string]any{
			"registeredIP": sub.MetaData.RegisteredIP,
			"userAgent":    sub.MetaData.UserAgent,
		},
	}, "")
	if err != nil {
		return nil, err
	}

	return &dto.SessionResult{
		Access:         s.tokenInfo(access, accessExp),
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

func (s *sessionService) tokenInfo(tok string, exp time.Time) dto.TokenInfo {
	secs := int64(exp.Sub(s.deps.Now()).Seconds())
	if secs < 0 {
		secs = 0
	}
	return dto.TokenInfo{Token: tok, ExpiresIn: secs}
}

// findSession busca la sesión del usuario cuyo hash coincide con raw.
func (s *sessionService) findSession(ctx context.Context, userID, raw string) (*store.Document, error) {
	f := store.Where(fieldRefreshToken, store.OpEqual, tokens.SHA256Base64URL(raw))
	docs, err := s.deps.Store.List(ctx, SessionsCollection(userID), &f, nil)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrSessionNotFound
	}
	return &docs[0], nil
}

// Logout borra la sesión y marca al usuario como inactivo.
func (s *sessionService) Logout(ctx context.Context, claims *jwtx.Claims, raw string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Logout"),
	)

	user, err := s.deps.Store.Get(ctx, UsersCollection, claims.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	sess, err := s.findSession(ctx, user.ID, raw)
	if err != nil {
		return err
	}
	if _, err := s.deps.Store.Delete(ctx, SessionsCollection(user.ID), sess.ID); err != nil {
		return err
	}

	if _, err := s.deps.Store.Update(ctx, UsersCollection, user.ID, map[string]any{fieldStatus: statusInactive}); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	s.deps.Metrics.AuthEvent(metrics.EventLogout)
	log.Info("user logged out", logger.UserID(user.ID))
	audit.Log(ctx, audit.SessionEnded, logger.UserID(user.ID))
	return nil
}

// Refresh exige una sesión viva para raw. Con rotación, la sesión se
// reemplaza por una nueva con otro refresh token.
func (s *sessionService) Refresh(ctx context.Context, claims *jwtx.Claims, raw string, origin dto.Origin) (*dto.SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Refresh"),
	)

	sess, err := s.findSession(ctx, claims.ID, raw)
	if err != nil {
		return nil, err
	}

	sub := claims.AsSubject()
	var res *dto.SessionResult
	if s.deps.RotateRefresh {
		if _, err := s.deps.Store.Delete(ctx, SessionsCollection(claims.ID), sess.ID); err != nil {
			return nil, err
		}
		if origin.ClientIP != "" {
			sub.MetaData = jwtx.MetaData{RegisteredIP: origin.ClientIP, UserAgent: origin.UserAgent}
		}
		if res, err = s.issue(ctx, sub); err != nil {
			return nil, err
		}
	} else {
		access, exp, err := s.deps.Issuer.SignAccess(sub)
		if err != nil {
			return nil, err
		}
		res = &dto.SessionResult{Access: s.tokenInfo(access, exp)}
	}

	s.deps.Metrics.AuthEvent(metrics.EventRefresh)
	log.Debug("token refreshed", logger.UserID(claims.ID), logger.Bool("rotated", s.deps.RotateRefresh))
	if s.deps.RotateRefresh {
		audit.Log(ctx, audit.SessionRefreshed, logger.UserID(claims.ID), logger.ClientIP(origin.ClientIP))
	}
	return res, nil
}
