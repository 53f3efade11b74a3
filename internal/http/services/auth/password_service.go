package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dropDatabas3/hellousers/internal/audit"
	"github.com/dropDatabas3/hellousers/internal/email"
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
	"github.com/dropDatabas3/hellousers/internal/saga"
	tokens "github.com/dropDatabas3/hellousers/internal/security/token"
	"github.com/dropDatabas3/hellousers/internal/store"
)

const (
	fieldEmail = "email"

	// reintentos si el código generado ya existe
	codeAttempts = 5
)

type passwordService struct {
	deps Deps
}

// NewPasswordService crea el service de códigos y reset.
func NewPasswordService(deps Deps) PasswordService {
	return &passwordService{deps: deps.withDefaults()}
}

// SendCode genera un código, lo guarda en verificationCodes/{code} y lo
// envía por email. Si el envío falla el código se borra.
func (s *passwordService) SendCode(ctx context.Context, in dto.PasswordCodeRequest, lang string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("SendCode"),
	)

	addr := identity.NormalizeEmail(in.Email)
	user, err := s.deps.Identity.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := s.newCode(ctx)
	if err != nil {
		return err
	}

	vars := email.Vars{
		Name: user.DisplayName,
		Code: code,
		TTL:  strconv.Itoa(int(s.deps.CodeTTL.Minutes())),
	}
	err = saga.New("auth.password_code").
		Add("persist_code", func(ctx context.Context) error {
			_, err := s.deps.Store.Create(ctx, CodesCollection, map[string]any{fieldEmail: addr}, code)
			return err
		}, func(ctx context.Context) error {
			_, err := s.deps.Store.Delete(ctx, CodesCollection, code)
			return err
		}).
		Add("send_email", func(context.Context) error {
			return s.deps.Mailer.Send(addr, email.TemplateCodePassword, lang, vars)
		}, nil).
		Run(ctx)
	if err != nil {
		return err
	}

	s.deps.Metrics.AuthEvent(metrics.EventCodeIssued)
	log.Info("verification code sent", logger.Email(addr), logger.Lang(lang))
	audit.Log(ctx, audit.CodeIssued, logger.Email(addr))
	return nil
}

func (s *passwordService) newCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := tokens.GenerateCode()
		if err != nil {
			return "", err
		}
		existing, err := s.deps.Store.Get(ctx, CodesCollection, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a verification code after %d attempts", codeAttempts)
}

// ResetPassword canjea el código: existencia primero, después la ventana.
// Un código vencido no se consume. El código se borra recién cuando el
// email con el link salió.
func (s *passwordService) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest, lang string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ResetPassword"),
	)

	doc, err := s.deps.Store.Get(ctx, CodesCollection, in.Code)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrCodeNotFound
	}

	created, ok := doc.Time(store.FieldCreatedAt)
	if !ok || s.deps.Now().Sub(created) > s.deps.CodeTTL {
		s.deps.Metrics.AuthEvent(metrics.EventCodeExpired)
		return ErrCodeExpired
	}

	addr := doc.String(fieldEmail)
	link, err := s.deps.Identity.PasswordResetLink(ctx, addr)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.deps.Mailer.Send(addr, email.TemplateResetPassword, lang, email.Vars{Link: link}); err != nil {
		return err
	}
	if _, err := s.deps.Store.Delete(ctx, CodesCollection, in.Code); err != nil {
		return err
	}

	s.deps.Metrics.AuthEvent(metrics.EventCodeConsumed)
	log.Info("password reset link sent", logger.Email(addr))
	audit.Log(ctx, audit.ResetLinkSent, logger.Email(addr))
	return nil
}

func (s *passwordService) CanConfirm() bool {
	_, ok := identity.AsResetConfirmer(s.deps.Identity)
	return ok
}

// ConfirmReset aplica la nueva password con el oobCode del link.
func (s *passwordService) ConfirmReset(ctx context.Context, in dto.ConfirmResetRequest) error {
	rc, ok := identity.AsResetConfirmer(s.deps.Identity)
	if !ok {
		return ErrResetNotSupported
	}
	if err := rc.ConfirmPasswordReset(ctx, in.OOBCode, in.NewPassword); err != nil {
		return err
	}
	audit.Log(ctx, audit.PasswordChanged)
	return nil
}

// PurgeExpired borra los códigos con createdAt anterior a now-CodeTTL.
func (s *passwordService) PurgeExpired(ctx context.Context) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("PurgeExpired"),
	)

	cutoff := s.deps.Now().Add(-s.deps.CodeTTL)
	f := store.Where(store.FieldCreatedAt, store.OpLess, cutoff)
	docs, err := s.deps.Store.List(ctx, CodesCollection, &f, nil)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range docs {
		if _, err := s.deps.Store.Delete(ctx, CodesCollection, d.ID); err != nil {
			return n, err
		}
		n++
	}
	log.Info("expired verification codes purged", logger.Count(n))
	return n, nil
}
