package cmd

import (
	"database/sql"
	"net"

	"github.com/vibast-solutions/ms-go-accounts/app/controller"
	"github.com/vibast-solutions/ms-go-accounts/app/middleware"
	"github.com/vibast-solutions/ms-go-accounts/app/repository"
	"github.com/vibast-solutions/ms-go-accounts/app/service"
	"github.com/vibast-solutions/ms-go-accounts/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the account service, plus a gRPC health endpoint for orchestrator probes.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	accountRepo := repository.NewAccountRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	accountService := service.NewAccountService(db, accountRepo, refreshTokenRepo, cfg)

	go startHealthServer(cfg)

	startHTTPServer(cfg, accountService)
}

func startHTTPServer(cfg *config.Config, accountService service.AccountService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	accountController := controller.NewAccountController(accountService)
	authMiddleware := middleware.NewAuthMiddleware(accountService)

	accounts := e.Group("/accounts")
	accounts.Use(authMiddleware.Authenticate)
	accounts.POST("/register", accountController.Register)
	accounts.POST("/login", accountController.Login)
	accounts.POST("/verify", accountController.Verify)
	accounts.POST("/password/reset-request", accountController.RequestPasswordReset)
	accounts.POST("/password/reset", accountController.ResetPassword)
	accounts.POST("/token/refresh", accountController.RefreshToken)
	accounts.POST("/verification-token/resend", accountController.ResendVerificationToken)

	protected := accounts.Group("")
	protected.Use(authMiddleware.RequireIdentity)
	protected.GET("/info", accountController.Info)
	protected.PUT("/profile", accountController.UpdateProfile)
	protected.POST("/logout", accountController.Logout)
	protected.POST("/password/change", accountController.ChangePassword)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func startHealthServer(cfg *config.Config) {
	grpcAddr := net.JoinHostPort(cfg.GRPCHost, cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := grpc.NewServer()
	defer grpcServer.GracefulStop()

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC health server")
	if err := grpcServer.Serve(lis); err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC health server")
	}
}
