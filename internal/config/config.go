package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env" env:"APP_ENV"`
		Version string `yaml:"version" env:"APP_VERSION"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Server struct {
		Addr               string        `yaml:"addr" env:"SERVER_ADDR"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"SERVER_CORS_ALLOWED_ORIGINS" envSeparator:","`
		CORSOrigin1        string        `yaml:"-" env:"CORS_ORIGIN_1"`
		CORSOrigin2        string        `yaml:"-" env:"CORS_ORIGIN_2"`
		ReadTimeout        time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout       time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		MaxBodyBytes       int64         `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES"`
	} `yaml:"server"`

	Storage struct {
		// memory | mongo
		Driver      string `yaml:"driver" env:"STORAGE_DRIVER"`
		FanOutLimit int    `yaml:"fanout_limit" env:"STORAGE_FANOUT_LIMIT"`
		Mongo       struct {
			URI      string `yaml:"uri" env:"MONGO_URI"`
			Database string `yaml:"database" env:"MONGO_DATABASE"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Identity struct {
		// firebase | local
		Driver   string `yaml:"driver" env:"IDENTITY_DRIVER"`
		Firebase struct {
			CredentialsFile string `yaml:"credentials_file" env:"FIREBASE_CREDENTIALS_FILE"`
			ProjectID       string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
		} `yaml:"firebase"`
		Local struct {
			// Issuer OIDC externo opcional para verificar tokenAuth.
			OIDCIssuer   string        `yaml:"oidc_issuer" env:"IDENTITY_OIDC_ISSUER"`
			OIDCClientID string        `yaml:"oidc_client_id" env:"IDENTITY_OIDC_CLIENT_ID"`
			ResetURL     string        `yaml:"reset_url" env:"IDENTITY_RESET_URL"`
			ResetTTL     time.Duration `yaml:"reset_ttl" env:"IDENTITY_RESET_TTL"`
			TokenSecret  string        `yaml:"token_secret" env:"IDENTITY_TOKEN_SECRET"`
		} `yaml:"local"`
		Breaker struct {
			MaxFailures uint32        `yaml:"max_failures" env:"IDENTITY_BREAKER_MAX_FAILURES"`
			OpenTimeout time.Duration `yaml:"open_timeout" env:"IDENTITY_BREAKER_OPEN_TIMEOUT"`
		} `yaml:"breaker"`
	} `yaml:"identity"`

	Bucket struct {
		// memory | minio | s3
		Driver        string `yaml:"driver" env:"BUCKET_DRIVER"`
		Name          string `yaml:"name" env:"BUCKET_NAME"`
		Endpoint      string `yaml:"endpoint" env:"BUCKET_ENDPOINT"`
		Region        string `yaml:"region" env:"BUCKET_REGION"`
		AccessKey     string `yaml:"access_key" env:"BUCKET_ACCESS_KEY"`
		SecretKey     string `yaml:"secret_key" env:"BUCKET_SECRET_KEY"`
		UseSSL        bool   `yaml:"use_ssl" env:"BUCKET_USE_SSL"`
		PublicBaseURL string `yaml:"public_base_url" env:"BUCKET_PUBLIC_BASE_URL"`
	} `yaml:"bucket"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind" env:"CACHE_KIND"`
		Redis struct {
			Addr     string `yaml:"addr" env:"REDIS_ADDR"`
			DB       int    `yaml:"db" env:"REDIS_DB"`
			Password string `yaml:"password" env:"REDIS_PASSWORD"`
			Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_MEMORY_DEFAULT_TTL"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer        string        `yaml:"issuer" env:"JWT_ISSUER"`
		AccessSecret  string        `yaml:"access_secret" env:"JWT_ACCESS_SECRET"`
		RefreshSecret string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
		AccessTTL     time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL"`
		RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL"`
		RotateRefresh bool          `yaml:"rotate_refresh" env:"JWT_ROTATE_REFRESH"`
	} `yaml:"jwt"`

	Auth struct {
		Cookie struct {
			Name     string `yaml:"name" env:"AUTH_COOKIE_NAME"`
			Domain   string `yaml:"domain" env:"AUTH_COOKIE_DOMAIN"`
			SameSite string `yaml:"samesite" env:"AUTH_COOKIE_SAMESITE"`
			Secure   bool   `yaml:"secure" env:"AUTH_COOKIE_SECURE"`
		} `yaml:"cookie"`
		// Clave del secretbox con la que el front cifra el campo "auth" del alta.
		PayloadKey string `yaml:"payload_key" env:"AUTH_PAYLOAD_KEY"`
		// Ventana de validez de los códigos de verificación.
		CodeTTL time.Duration `yaml:"code_ttl" env:"AUTH_CODE_TTL"`
		// Roles con permiso sobre /users (vacío = cualquier usuario autenticado).
		ManageRoles []string `yaml:"manage_roles" env:"AUTH_MANAGE_ROLES" envSeparator:","`
	} `yaml:"auth"`

	Projects struct {
		RegistrationKey  string `yaml:"registration_key" env:"PROJECTS_REGISTRATION_KEY"`
		AdminEmailDomain string `yaml:"admin_email_domain" env:"PROJECTS_ADMIN_EMAIL_DOMAIN"`
	} `yaml:"projects"`

	Email struct {
		// smtp | log
		Driver string `yaml:"driver" env:"EMAIL_DRIVER"`
	} `yaml:"email"`

	SMTP struct {
		Host     string `yaml:"host" env:"SMTP_HOST"`
		Port     int    `yaml:"port" env:"SMTP_PORT"`
		Username string `yaml:"username" env:"SMTP_USERNAME"`
		Password string `yaml:"password" env:"SMTP_PASSWORD"`
		From     string `yaml:"from" env:"SMTP_FROM"`
		// auto | starttls | ssl | none
		TLSMode            string `yaml:"tls_mode" env:"SMTP_TLS_MODE"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"SMTP_INSECURE_SKIP_VERIFY"`
	} `yaml:"smtp"`

	Rate struct {
		Enabled     bool          `yaml:"enabled" env:"RATE_ENABLED"`
		Window      time.Duration `yaml:"window" env:"RATE_WINDOW"`
		MaxRequests int           `yaml:"max_requests" env:"RATE_MAX_REQUESTS"`
		Whitelist   []string      `yaml:"whitelist" env:"RATE_WHITELIST" envSeparator:","`
		Login       struct {
			Limit  int           `yaml:"limit" env:"RATE_LOGIN_LIMIT"`
			Window time.Duration `yaml:"window" env:"RATE_LOGIN_WINDOW"`
		} `yaml:"login"`
		Code struct {
			Limit  int           `yaml:"limit" env:"RATE_CODE_LIMIT"`
			Window time.Duration `yaml:"window" env:"RATE_CODE_WINDOW"`
		} `yaml:"code"`
	} `yaml:"rate"`

	I18n struct {
		DefaultLang string   `yaml:"default_lang" env:"I18N_DEFAULT_LANG"`
		Supported   []string `yaml:"supported" env:"I18N_SUPPORTED" envSeparator:","`
	} `yaml:"i18n"`
}

// Load lee el YAML (opcional si path == ""), aplica overrides de entorno,
// defaults y validación.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	for _, o := range []string{c.Server.CORSOrigin1, c.Server.CORSOrigin2} {
		if o = strings.TrimSpace(o); o != "" {
			c.Server.CORSAllowedOrigins = append(c.Server.CORSAllowedOrigins, o)
		}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.FanOutLimit <= 0 {
		c.Storage.FanOutLimit = 16
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "hellousers"
	}

	if c.Identity.Driver == "" {
		c.Identity.Driver = "local"
	}
	if c.Identity.Local.ResetTTL == 0 {
		c.Identity.Local.ResetTTL = time.Hour
	}
	if c.Identity.Breaker.MaxFailures == 0 {
		c.Identity.Breaker.MaxFailures = 5
	}
	if c.Identity.Breaker.OpenTimeout == 0 {
		c.Identity.Breaker.OpenTimeout = 30 * time.Second
	}

	if c.Bucket.Driver == "" {
		c.Bucket.Driver = "memory"
	}
	if c.Bucket.Name == "" {
		c.Bucket.Name = "hellousers"
	}
	if c.Bucket.Region == "" {
		c.Bucket.Region = "us-east-1"
	}

	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == 0 {
		c.Cache.Memory.DefaultTTL = 2 * time.Minute
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hellousers:"
	}

	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "hellousers"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 720 * time.Hour // 30d
	}

	if c.Auth.Cookie.Name == "" {
		c.Auth.Cookie.Name = "refreshToken"
	}
	if c.Auth.Cookie.SameSite == "" {
		c.Auth.Cookie.SameSite = "Lax"
	}
	if c.Auth.CodeTTL == 0 {
		c.Auth.CodeTTL = 10 * time.Minute
	}

	if c.Projects.AdminEmailDomain == "" {
		c.Projects.AdminEmailDomain = "hellousers.local"
	}

	if c.Email.Driver == "" {
		if c.SMTP.Host != "" {
			c.Email.Driver = "smtp"
		} else {
			c.Email.Driver = "log"
		}
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}

	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == 0 {
		c.Rate.Login.Window = time.Minute
	}
	if c.Rate.Code.Limit == 0 {
		c.Rate.Code.Limit = 5
	}
	if c.Rate.Code.Window == 0 {
		c.Rate.Code.Window = 10 * time.Minute
	}

	if c.I18n.DefaultLang == "" {
		c.I18n.DefaultLang = "en"
	}
	if len(c.I18n.Supported) == 0 {
		c.I18n.Supported = []string{"en", "es"}
	}
}

// Validate revisa valores críticos. En prod los secretos son obligatorios.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory", "mongo":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unsupported %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "mongo" && c.Storage.Mongo.URI == "" {
		errs = append(errs, errors.New("storage.mongo.uri is required for mongo driver"))
	}

	switch c.Identity.Driver {
	case "local", "firebase":
	default:
		errs = append(errs, fmt.Errorf("identity.driver: unsupported %q", c.Identity.Driver))
	}

	switch c.Bucket.Driver {
	case "memory", "minio", "s3":
	default:
		errs = append(errs, fmt.Errorf("bucket.driver: unsupported %q", c.Bucket.Driver))
	}

	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unsupported %q", c.Cache.Kind))
	}

	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		errs = append(errs, errors.New("jwt.access_ttl must be shorter than jwt.refresh_ttl"))
	}

	if strings.EqualFold(c.App.Env, "prod") {
		if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
			errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required in prod"))
		}
		if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
			errs = append(errs, errors.New("access and refresh secrets must differ"))
		}
		if c.Auth.PayloadKey == "" {
			errs = append(errs, errors.New("AUTH_PAYLOAD_KEY is required in prod"))
		}
		if len(c.Server.CORSAllowedOrigins) == 0 {
			errs = append(errs, errors.New("at least one CORS origin is required in prod"))
		}
	}

	return errors.Join(errs...)
}
