package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellousers/internal/bootstrap"
	"github.com/dropDatabas3/hellousers/internal/config"
	"github.com/dropDatabas3/hellousers/internal/http/server"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/security/secretbox"
)

func main() {
	_ = godotenv.Load(".env")

	cfgPath := envOr("CONFIG_PATH", "")

	root := &cobra.Command{
		Use:           "hellousers",
		Short:         "Backend de usuarios, sesiones y proyectos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Archivo YAML de configuración (env CONFIG_PATH)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: "hellousers",
			Version:     cfg.App.Version,
		})
		return cfg, nil
	}

	// ─── serve ───
	var bootstrapAdmin bool
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := server.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := res.Close(closeCtx); err != nil {
					logger.L().Warn("close resources", logger.Err(err))
				}
			}()

			if bootstrapAdmin {
				if err := ensureAdmin(ctx, res); err != nil {
					return err
				}
			}
			return server.Run(ctx, cfg, res.App.Handler)
		},
	}
	serveCmd.Flags().BoolVar(&bootstrapAdmin, "bootstrap-admin", false, "Pedir credenciales del primer admin si no existe ninguno")

	// ─── admin ───
	var adminEmail, adminPassword string
	adminCmd := &cobra.Command{Use: "admin", Short: "Operaciones sobre usuarios admin"}
	adminBootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Crea el primer admin si la colección users no tiene ninguno",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			res, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = res.Close(context.Background()) }()

			id, err := bootstrap.EnsureAdmin(cmd.Context(), bootstrap.AdminConfig{
				Store:      res.Store,
				Identity:   res.Identity,
				SkipPrompt: adminEmail != "" && adminPassword != "",
				Email:      adminEmail,
				Password:   adminPassword,
				Out:        cmd.OutOrStdout(),
			})
			if errors.Is(err, bootstrap.ErrAdminExists) {
				fmt.Fprintln(cmd.OutOrStdout(), "admin already exists, nothing to do")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: %s\n", id)
			return nil
		},
	}
	adminBootstrapCmd.Flags().StringVar(&adminEmail, "email", envOr("ADMIN_EMAIL", ""), "Email del admin (env ADMIN_EMAIL)")
	adminBootstrapCmd.Flags().StringVar(&adminPassword, "password", envOr("ADMIN_PASSWORD", ""), "Password del admin (env ADMIN_PASSWORD)")
	adminCmd.AddCommand(adminBootstrapCmd)

	// ─── codes ───
	codesCmd := &cobra.Command{Use: "codes", Short: "Códigos de verificación"}
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Borra los códigos vencidos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			res, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = res.Close(context.Background()) }()

			n, err := res.App.Auth.Password.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d codes\n", n)
			return nil
		},
	}
	codesCmd.AddCommand(purgeCmd)

	// ─── secret ───
	secretCmd := &cobra.Command{Use: "secret", Short: "Utilidades del campo auth cifrado"}
	genKeyCmd := &cobra.Command{
		Use:   "genkey",
		Short: "Genera una clave AES-256 en base64 para AUTH_PAYLOAD_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), k)
			return nil
		},
	}
	var encKey string
	encryptCmd := &cobra.Command{
		Use:   "encrypt <plaintext>",
		Short: "Cifra un valor como lo hace el front en el campo auth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if encKey == "" {
				return errors.New("falta la clave (flag --key o env AUTH_PAYLOAD_KEY)")
			}
			box, err := secretbox.New(encKey)
			if err != nil {
				return err
			}
			out, err := box.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	encryptCmd.Flags().StringVar(&encKey, "key", envOr("AUTH_PAYLOAD_KEY", ""), "Clave del secretbox (env AUTH_PAYLOAD_KEY)")
	secretCmd.AddCommand(genKeyCmd, encryptCmd)

	root.AddCommand(serveCmd, adminCmd, codesCmd, secretCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func ensureAdmin(ctx context.Context, res *server.Resources) error {
	_, err := bootstrap.EnsureAdmin(ctx, bootstrap.AdminConfig{Store: res.Store, Identity: res.Identity})
	if err != nil && !errors.Is(err, bootstrap.ErrAdminExists) {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
