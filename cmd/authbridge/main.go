package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/authbridge/internal/config"
	"github.com/dropDatabas3/authbridge/internal/http/server"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath = envOr("AUTHBRIDGE_CONFIG", "authbridge.yaml")
		envFile    = ".env"
	)

	root := &cobra.Command{
		Use:          "authbridge",
		Short:        "Login contra providers OAuth1/OAuth2 externos",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Archivo de configuración YAML (env AUTHBRIDGE_CONFIG)")
	root.PersistentFlags().StringVar(&envFile, "env-file", envFile, "Archivo .env opcional")

	load := func() (*config.Config, error) {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
		return config.Load(configPath)
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: cfg.App.Name,
				Version:     cfg.App.Version,
			})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := server.Build(ctx, cfg, server.Options{})
			if err != nil {
				logger.L().Error("wiring failed", logger.Err(err))
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.L().Warn("cleanup failed", logger.Err(err))
				}
			}()

			go app.PurgeLoop(ctx, cfg.TokenStore.Postgres.PurgeInterval)

			return server.Run(ctx, cfg.Server, app.Handler)
		},
	}

	var out string
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Lista los providers configurados",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			reg, err := server.BuildRegistry(cfg)
			if err != nil {
				return err
			}

			type entry struct {
				Name        string `json:"name"`
				Type        string `json:"type"`
				RedirectURI string `json:"redirect_uri"`
			}
			var entries []entry
			for _, name := range reg.Available() {
				pc, _ := reg.Config(name)
				entries = append(entries, entry{Name: name, Type: pc.Type, RedirectURI: pc.RedirectURI})
			}

			w := cmd.OutOrStdout()
			if out == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%-12s %-8s %s\n", e.Name, e.Type, e.RedirectURI)
			}
			return nil
		},
	}
	providersCmd.Flags().StringVar(&out, "out", "text", "Formato de salida: json|text")

	root.AddCommand(serveCmd, providersCmd)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
