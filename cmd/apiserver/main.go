package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amoylab/casamento/internal/apiserver/database"
	"github.com/amoylab/casamento/internal/apiserver/handler"
	"github.com/amoylab/casamento/internal/apiserver/schema"
	"github.com/amoylab/casamento/internal/apiserver/service"
	"github.com/amoylab/casamento/internal/auth/jwt"
	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/common/config"
	"github.com/amoylab/casamento/internal/i18n"
	"github.com/amoylab/casamento/pkg/helper"
	"github.com/amoylab/casamento/pkg/logger"
	"github.com/amoylab/casamento/pkg/metrics"
	"github.com/amoylab/casamento/pkg/trace"
	"github.com/amoylab/casamento/pkg/version"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apiserver version %s\n", strings.TrimSpace(version.Get()))
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables and exit",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			lg := initLogger(cfg)
			defer lg.Sync()

			db := initDatabase(lg, &cfg.Database)
			defer db.Close()
			lg.Info("database migrated", zap.String("type", cfg.Database.Type))
		},
	}

	rootCmd = &cobra.Command{
		Use:   cnst.CommandName,
		Short: "Wedding planning API server",
		Long:  `apiserver exposes the couples, planners, vendors and planning records of casamento over a REST API`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "conf", "c", cnst.ApiServerYaml, "path to configuration file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig() *config.APIServerConfig {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration %s: %v", cfgPath, err)
	}
	return cfg
}

func initLogger(cfg *config.APIServerConfig) *zap.Logger {
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return lg
}

func initDatabase(lg *zap.Logger, cfg *config.DatabaseConfig) database.Database {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		lg.Fatal("Failed to initialize database", zap.String("type", cfg.Type), zap.Error(err))
	}
	return db
}

func initI18n(lg *zap.Logger, cfg *config.I18nConfig) {
	if err := i18n.InitTranslator(cfg.Path); err != nil {
		lg.Warn("Failed to load translations, replying with message ids",
			zap.String("path", cfg.Path), zap.Error(err))
	}
}

func initSuperAdmin(ctx context.Context, lg *zap.Logger, db database.Database, cfg *config.SuperAdminConfig) {
	created, err := database.InitSuperAdmin(ctx, db, cfg)
	if err != nil {
		lg.Fatal("Failed to initialize super admin", zap.Error(err))
	}
	if created {
		lg.Info("super admin created", zap.String("username", cfg.Username))
	}
}

func initRouter(lg *zap.Logger, db database.Database, cfg *config.APIServerConfig) (*gin.Engine, error) {
	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwt service: %w", err)
	}

	var m *metrics.Metrics
	opts := service.Options{Scope: cfg.Authorization.Scope}
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
		opts.Recorder = m
	}

	reg, err := service.NewRegistry(db, schema.NewCodec(cfg.Media.URL), lg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}

	routerOpts := handler.Options{
		Logger:   lg,
		DB:       db,
		Registry: reg,
		JWT:      jwtService,
		Metrics:  m,
		CORS:     cfg.CORS,
	}
	if cfg.Tracing.Enabled {
		routerOpts.TracingService = cfg.Tracing.ServiceName
	}
	return handler.NewRouter(routerOpts), nil
}

func run() {
	cfg := loadConfig()

	lg := initLogger(cfg)
	defer lg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lg.Info("Starting apiserver",
		zap.String("version", strings.TrimSpace(version.Get())),
		zap.String("scope", cfg.Authorization.Scope))

	initI18n(lg, &cfg.I18n)

	shutdownTracing, err := trace.InitTracing(ctx, &cfg.Tracing, lg)
	if err != nil {
		lg.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			lg.Warn("Failed to shutdown tracing", zap.Error(err))
		}
	}()

	db := initDatabase(lg, &cfg.Database)
	defer db.Close()

	initSuperAdmin(ctx, lg, db, &cfg.SuperAdmin)

	router, err := initRouter(lg, db, cfg)
	if err != nil {
		lg.Fatal("Failed to initialize router", zap.Error(err))
	}

	pidFile := cfg.Server.PIDFile
	if pidFile != "" {
		pidFile = helper.GetPIDPath(pidFile)
		if err := helper.WritePID(pidFile); err != nil {
			lg.Fatal("Failed to write PID file", zap.String("path", pidFile), zap.Error(err))
		}
		defer os.Remove(pidFile)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		lg.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	lg.Info("Shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server forced to shutdown", zap.Error(err))
	}
	lg.Info("Server exited")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
