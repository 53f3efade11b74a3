// Package server construye las dependencias desde config y corre el
// http.Server con apagado ordenado.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/hellousers/internal/app"
	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/config"
	"github.com/dropDatabas3/hellousers/internal/email"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/identity/firebase"
	"github.com/dropDatabas3/hellousers/internal/identity/local"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
	"github.com/dropDatabas3/hellousers/internal/rate"
	"github.com/dropDatabas3/hellousers/internal/security/secretbox"
	tokens "github.com/dropDatabas3/hellousers/internal/security/token"
	"github.com/dropDatabas3/hellousers/internal/storage"
	"github.com/dropDatabas3/hellousers/internal/store"
	_ "github.com/dropDatabas3/hellousers/internal/store/adapters/dal"
)

// Resources lo que Build abrió; Close libera en orden inverso.
type Resources struct {
	App      *app.App
	Store    *store.Facade
	Cache    cache.Client
	Identity identity.Provider

	closers []func(context.Context) error
}

// Close cierra conexiones abiertas.
func (r *Resources) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build abre store, cache, identidad, bucket y mailer según cfg y cablea la app.
func Build(ctx context.Context, cfg *config.Config) (*Resources, error) {
	log := logger.L().With(logger.Component("server"), logger.Op("Build"))
	res := &Resources{}
	fail := func(err error) (*Resources, error) {
		_ = res.Close(context.Background())
		return nil, err
	}

	helpers.SetMaxJSONBody(cfg.Server.MaxBodyBytes)

	// 1. i18n
	bundle, err := i18n.NewBundle(cfg.I18n.DefaultLang, cfg.I18n.Supported)
	if err != nil {
		return fail(fmt.Errorf("i18n: %w", err))
	}

	// 2. Store
	facade, err := OpenStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	res.Store = facade
	res.closers = append(res.closers, facade.Close)
	log.Info("store ready", logger.Backend(facade.Backend()))

	// 3. Cache
	cc, err := cache.New(ctx, cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.Cache.Memory.DefaultTTL,
	})
	if err != nil {
		return fail(err)
	}
	res.Cache = cc
	res.closers = append(res.closers, func(context.Context) error { return cc.Close() })

	// 4. Identidad (detrás del breaker)
	provider, err := openIdentity(ctx, cfg, facade, cc)
	if err != nil {
		return fail(err)
	}
	breaker := identity.NewBreaker(provider, identity.BreakerConfig{
		MaxFailures: cfg.Identity.Breaker.MaxFailures,
		OpenTimeout: cfg.Identity.Breaker.OpenTimeout,
	})
	res.Identity = breaker

	// 5. Bucket
	bucket, err := storage.New(ctx, storage.Config{
		Driver:        cfg.Bucket.Driver,
		Name:          cfg.Bucket.Name,
		Endpoint:      cfg.Bucket.Endpoint,
		Region:        cfg.Bucket.Region,
		AccessKey:     cfg.Bucket.AccessKey,
		SecretKey:     cfg.Bucket.SecretKey,
		UseSSL:        cfg.Bucket.UseSSL,
		PublicBaseURL: cfg.Bucket.PublicBaseURL,
	})
	if err != nil {
		return fail(err)
	}

	// 6. Email
	renderer, err := email.NewRenderer(bundle)
	if err != nil {
		return fail(fmt.Errorf("email templates: %w", err))
	}
	mailer := &email.Mailer{Sender: newSender(cfg), Renderer: renderer}

	// 7. JWT + secretbox
	issuer, err := newIssuer(cfg)
	if err != nil {
		return fail(err)
	}
	box, err := newBox(cfg)
	if err != nil {
		return fail(err)
	}

	// 8. Rate limit
	global, login, code := newLimiters(cfg, cc)

	a, err := app.New(app.Config{
		Version:       cfg.App.Version,
		CORSOrigins:   cfg.Server.CORSAllowedOrigins,
		RateWhitelist: cfg.Rate.Whitelist,
		Cookie: helpers.CookieConfig{
			Name:     cfg.Auth.Cookie.Name,
			Domain:   cfg.Auth.Cookie.Domain,
			SameSite: cfg.Auth.Cookie.SameSite,
			Secure:   cfg.Auth.Cookie.Secure,
		},
		ManageRoles:      cfg.Auth.ManageRoles,
		RegistrationKey:  cfg.Projects.RegistrationKey,
		AdminEmailDomain: cfg.Projects.AdminEmailDomain,
		CodeTTL:          cfg.Auth.CodeTTL,
		RotateRefresh:    cfg.JWT.RotateRefresh,
	}, app.Deps{
		Store:        facade,
		Cache:        cc,
		Identity:     breaker,
		Bucket:       bucket,
		Mailer:       mailer,
		Issuer:       issuer,
		Box:          box,
		Metrics:      metrics.New(),
		Bundle:       bundle,
		Limiter:      global,
		LoginLimiter: login,
		CodeLimiter:  code,
	})
	if err != nil {
		return fail(err)
	}
	res.App = a
	return res, nil
}

// OpenStore abre la fachada de documentos con el adapter configurado.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Facade, error) {
	conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
		Name:     cfg.Storage.Driver,
		URI:      cfg.Storage.Mongo.URI,
		Database: cfg.Storage.Mongo.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return store.NewFacade(conn, store.Options{FanOutLimit: cfg.Storage.FanOutLimit}), nil
}

func openIdentity(ctx context.Context, cfg *config.Config, facade *store.Facade, cc cache.Client) (identity.Provider, error) {
	if cfg.Identity.Driver == "firebase" {
		return firebase.New(ctx, firebase.Config{
			CredentialsFile: cfg.Identity.Firebase.CredentialsFile,
			ProjectID:       cfg.Identity.Firebase.ProjectID,
		})
	}

	secret, err := devSecret(cfg, "identity.local.token_secret", cfg.Identity.Local.TokenSecret)
	if err != nil {
		return nil, err
	}
	opts := local.Options{
		Store:       facade,
		Cache:       cc,
		TokenSecret: []byte(secret),
		ResetURL:    cfg.Identity.Local.ResetURL,
		ResetTTL:    cfg.Identity.Local.ResetTTL,
	}
	if cfg.Identity.Local.OIDCIssuer != "" {
		v, err := local.NewOIDCVerifier(ctx, cfg.Identity.Local.OIDCIssuer, cfg.Identity.Local.OIDCClientID)
		if err != nil {
			return nil, err
		}
		opts.Verifier = v
	}
	return local.New(opts)
}

func newSender(cfg *config.Config) email.Sender {
	if cfg.Email.Driver != "smtp" {
		return email.LogSender{}
	}
	s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	s.TLSMode = cfg.SMTP.TLSMode
	s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	return s
}

func newIssuer(cfg *config.Config) (*jwtx.Issuer, error) {
	access, err := devSecret(cfg, "jwt.access_secret", cfg.JWT.AccessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := devSecret(cfg, "jwt.refresh_secret", cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, err
	}
	return jwtx.NewIssuer(jwtx.Config{
		Issuer:        cfg.JWT.Issuer,
		AccessSecret:  access,
		RefreshSecret: refresh,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
}

func newBox(cfg *config.Config) (*secretbox.Box, error) {
	key := cfg.Auth.PayloadKey
	if key == "" {
		if isProd(cfg) {
			return nil, errors.New("auth.payload_key is required")
		}
		k, err := secretbox.GenerateKey()
		if err != nil {
			return nil, err
		}
		logger.L().Warn("AUTH_PAYLOAD_KEY empty, using an ephemeral key", logger.Component("server"))
		key = k
	}
	return secretbox.New(key)
}

// newLimiters: con Redis los contadores se comparten entre réplicas.
func newLimiters(cfg *config.Config, cc cache.Client) (global, login, code rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil, nil
	}
	if rdb, ok := cache.Underlying(cc); ok {
		prefix := cfg.Cache.Redis.Prefix
		return rate.NewRedisLimiter(rdb, prefix+"rl:", cfg.Rate.MaxRequests, cfg.Rate.Window),
			rate.NewRedisLimiter(rdb, prefix+"rl:login:", cfg.Rate.Login.Limit, cfg.Rate.Login.Window),
			rate.NewRedisLimiter(rdb, prefix+"rl:code:", cfg.Rate.Code.Limit, cfg.Rate.Code.Window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window),
		rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.Rate.Login.Window),
		rate.NewMemoryLimiter(cfg.Rate.Code.Limit, cfg.Rate.Code.Window)
}

// devSecret fuera de prod reemplaza un secreto vacío por uno aleatorio.
// Los tokens emitidos no sobreviven un reinicio.
func devSecret(cfg *config.Config, name, v string) (string, error) {
	if v != "" {
		return v, nil
	}
	if isProd(cfg) {
		return "", fmt.Errorf("%s is required", name)
	}
	logger.L().Warn("empty secret, using an ephemeral one", logger.Component("server"), logger.String("secret", name))
	return tokens.GenerateOpaqueToken(32)
}

func isProd(cfg *config.Config) bool { return strings.EqualFold(cfg.App.Env, "prod") }
