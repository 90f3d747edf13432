package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/qrda/qrda/internal/config"
	"github.com/qrda/qrda/internal/platform/auth"
	"github.com/qrda/qrda/internal/platform/fhir"
	"github.com/qrda/qrda/internal/platform/middleware"
	"github.com/qrda/qrda/internal/platform/qrda"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qrda-server",
		Short: "QRDA Category I quality reporting server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the QRDA API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a QRDA document from a bundle file",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundlePath, _ := cmd.Flags().GetString("bundle")
			optionsPath, _ := cmd.Flags().GetString("options")
			outPath, _ := cmd.Flags().GetString("out")

			if bundlePath == "" {
				return fmt.Errorf("--bundle is required")
			}
			if optionsPath == "" {
				return fmt.Errorf("--options is required")
			}

			bundleData, err := os.ReadFile(bundlePath)
			if err != nil {
				return fmt.Errorf("reading bundle: %w", err)
			}
			bundle, err := fhir.Decode(bundleData)
			if err != nil {
				return err
			}

			optionsData, err := os.ReadFile(optionsPath)
			if err != nil {
				return fmt.Errorf("reading options: %w", err)
			}
			var opts qrda.Options
			if err := json.Unmarshal(optionsData, &opts); err != nil {
				return fmt.Errorf("parsing options: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			generator := qrda.NewGenerator(cfg.SoftwareName, cfg.CMSCertID)
			output, err := generator.Generate(bundle, &opts)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = os.Stdout.Write(output)
				return err
			}
			if err := os.WriteFile(outPath, output, 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(output))
			return nil
		},
	}
	cmd.Flags().String("bundle", "", "Path to the FHIR bundle JSON file")
	cmd.Flags().String("options", "", "Path to the generation options JSON file")
	cmd.Flags().String("out", "", "Output file (defaults to stdout)")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M", "20M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// QRDA generation
	generator := qrda.NewGenerator(cfg.SoftwareName, cfg.CMSCertID)
	qrdaHandler := qrda.NewHandler(generator)
	qrdaHandler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
