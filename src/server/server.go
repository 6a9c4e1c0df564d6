package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	app "recipeserv/src/app"
	cfg "recipeserv/src/configuration"
	"recipeserv/src/logging"
	db "recipeserv/src/repository"
)

// Handler holds the stores behind the HTTP endpoints.
type Handler struct {
	config      *cfg.Properties
	users       *db.UserRepository
	tags        *labelHandler[app.Tag]
	ingredients *labelHandler[app.Ingredient]
	recipes     *db.RecipeRepository
	tokens      db.TokenStore
	jwt         *JWTManager
	storage     app.ImageStorage
	images      *app.ImageUploader
}

func NewHandler(config *cfg.Properties, database *gorm.DB, tokens db.TokenStore, storage app.ImageStorage) (*Handler, error) {
	jwtManager, err := NewJWTManager(config.Auth.JWTSecret, config.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	recipes := db.NewRecipeRepository(database)
	return &Handler{
		config:      config,
		users:       db.NewUserRepository(database),
		tags:        newLabelHandler(db.NewTagRepository(database), tagResponse),
		ingredients: newLabelHandler(db.NewIngredientRepository(database), ingredientResponse),
		recipes:     recipes,
		tokens:      tokens,
		jwt:         jwtManager,
		storage:     storage,
		images:      app.NewImageUploader(storage, recipes),
	}, nil
}

func corsConfig(config cfg.HttpServerProperties) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", "User-Agent", "Referrer", "Host", logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	origins := make([]string, 0, len(config.CorsOrigins))
	for _, origin := range config.CorsOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

// NewRouter wires every endpoint. oidcHandler may be nil when OIDC login is disabled.
func NewRouter(config *cfg.Properties, handler *Handler, oidcHandler *AuthHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(), metricsMiddleware())
	router.Use(cors.New(corsConfig(config.Server)))
	if config.Server.Pprof {
		pprof.Register(router)
	}

	// Register Routes
	router.GET("/health", handler.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if local, ok := handler.storage.(*app.LocalStorage); ok {
		if publicURL := strings.TrimRight(config.Storage.PublicURL, "/"); strings.HasPrefix(publicURL, "/") {
			router.Static(publicURL, local.Root())
		}
	}
	if oidcHandler != nil {
		oidcHandler.register(router)
	}

	user := router.Group("/user")
	user.POST("/create/", handler.CreateUser)
	user.POST("/token/", handler.CreateToken)
	me := user.Group("", handler.AuthRequired())
	me.GET("/me/", handler.GetMe)
	me.PUT("/me/", handler.UpdateMe(false))
	me.PATCH("/me/", handler.UpdateMe(true))
	me.POST("/logout/", handler.Logout)

	recipe := router.Group("/recipe", handler.AuthRequired())
	handler.tags.register(recipe, "/tags")
	handler.ingredients.register(recipe, "/ingredients")
	recipe.GET("/recipes/", handler.ListRecipes)
	recipe.POST("/recipes/", handler.CreateRecipe)
	recipe.GET("/recipes/:id/", handler.GetRecipe)
	recipe.PUT("/recipes/:id/", handler.UpdateRecipe(false))
	recipe.PATCH("/recipes/:id/", handler.UpdateRecipe(true))
	recipe.DELETE("/recipes/:id/", handler.DeleteRecipe)
	recipe.POST("/recipes/:id/upload-image/", handler.UploadRecipeImage)

	router.NoRoute(func(c *gin.Context) { abortWithError(c, http.StatusNotFound, app.ErrNotFound.Error()) })
	return router
}

// NewImageStorage opens the configured image backend.
func NewImageStorage(ctx context.Context, config *cfg.Properties) (app.ImageStorage, error) {
	switch config.Storage.Backend {
	case "s3":
		clientS3, err := app.NewMinioS3Client(
			config.S3.Host,
			config.S3.AccessKey,
			config.S3.SecretKey,
			config.S3.Bucket,
			config.S3.SSL,
			config.S3.URLExpiry)
		if err != nil {
			return nil, err
		}
		if err := clientS3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return clientS3, nil
	case "local":
		return app.NewLocalStorage(config.Storage.LocalDir, config.Storage.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
}

// bootstrapAdmin creates the AUTH_ADMIN_EMAIL superuser unless it exists.
func bootstrapAdmin(ctx context.Context, config *cfg.Properties, users *db.UserRepository) error {
	if config.Auth.AdminEmail == "" {
		return nil
	}
	_, err := users.CreateSuperuser(ctx, config.Auth.AdminEmail, config.Auth.AdminPassword)
	if errors.Is(err, app.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logging.Info().Str("email", config.Auth.AdminEmail).Msg("created admin user")
	return nil
}

// RunServer serves the API until SIGINT or SIGTERM, then drains requests for at most
// HTTP_SHUTDOWN_TIMEOUT.
func RunServer(config *cfg.Properties) error {
	if config.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenDatabase(config.DB)
	if err != nil {
		return err
	}
	defer db.Close(database)

	tokens, err := db.NewTokenStore(ctx, config)
	if err != nil {
		return err
	}
	if closer, ok := tokens.(io.Closer); ok {
		defer closer.Close()
	}
	storage, err := NewImageStorage(ctx, config)
	if err != nil {
		return err
	}
	handler, err := NewHandler(config, database, tokens, storage)
	if err != nil {
		return err
	}
	if err := bootstrapAdmin(ctx, config, handler.users); err != nil {
		return err
	}

	var oidcHandler *AuthHandler
	if config.Auth.OIDCEnabled() {
		oidcHandler, err = NewAuthHandler(ctx, config, handler)
		if err != nil {
			logging.Error().Err(err).Msg("OIDC login disabled")
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Server.Port),
		Handler:           NewRouter(config, handler, oidcHandler),
		ReadHeaderTimeout: config.Server.ReadTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("name", config.Server.Name).Msg("server listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
