package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"socialapp/docs"
	"socialapp/internal/config"
	"socialapp/internal/db"
	"socialapp/internal/handlers"
	"socialapp/internal/media"
	"socialapp/internal/middleware"
	"socialapp/internal/repositories"
	"socialapp/internal/routes"
	"socialapp/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	// === DB ===
	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("[app] close db: %v", err)
		}
	}()
	if err := db.Migrate(conn); err != nil {
		return err
	}

	// === Media ===
	store, err := media.New(ctx, cfg.Media)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	go limiter.Cleanup(ctx, time.Hour)

	router, err := NewRouter(cfg, conn, store, limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s (env=%s, media=%s)", srv.Addr, cfg.App.Env, cfg.Media.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// NewRouter wires repositories, services and handlers onto a gin engine.
func NewRouter(cfg *config.Config, conn *sql.DB, store media.Store, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(conn)
	postRepo := repositories.NewPostRepository(conn)
	commentRepo := repositories.NewCommentRepository(conn)
	txRunner := db.NewTxRunner(conn)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DryRun,
	)
	userService := services.NewUserService(userRepo, authService)
	resetService := services.NewPasswordResetService(userRepo, emailService, authService)
	postService := services.NewPostService(postRepo, commentRepo, userRepo, store, txRunner)
	commentService := services.NewCommentService(commentRepo, postRepo, txRunner)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, resetService, cfg.Auth.TokenTTL, cfg.IsProduction())
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewCommentHandler(commentService)
	userHandler := handlers.NewUserHandler(userService)

	// === Gin ===
	router := gin.New()
	// ClientIP keys the rate limiter; only listed proxies may set X-Forwarded-For.
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.CORS.FrontendOrigin))

	// Swagger
	docs.SwaggerInfo.BasePath = cfg.Server.BasePath
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return routes.SetupRoutes(
		router,
		cfg.Server.BasePath,
		authService,
		limiter,
		authHandler,
		postHandler,
		commentHandler,
		userHandler,
	), nil
}
