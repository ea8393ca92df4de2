package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/petshop/server/internal/config"
	"github.com/petshop/server/internal/es"
	"github.com/petshop/server/internal/handlers"
	"github.com/petshop/server/internal/identity"
	"github.com/petshop/server/internal/logging"
	authmw "github.com/petshop/server/internal/middleware/auth"
	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/mykafka"
	oauthbridge "github.com/petshop/server/internal/oauth"
	"github.com/petshop/server/internal/session"
	"github.com/petshop/server/internal/store"
	"github.com/petshop/server/internal/token"
	httpserver "github.com/petshop/server/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.ACCESS_TOKEN_SECRET, "ACCESS_TOKEN_SECRET")
	config.MustNonEmpty(configuration.REFRESH_TOKEN_SECRET, "REFRESH_TOKEN_SECRET")
	config.MustNonEmpty(configuration.FIREBASE_DATABASE_URL, "FIREBASE_DATABASE_URL")

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()

	firebaseStore, authClient, bucket, err := store.Dial(ctx, configuration)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch init: %v", err)
	}

	codec := &token.Codec{
		AccessSecret:  []byte(configuration.ACCESS_TOKEN_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_TOKEN_SECRET),
	}

	googleIdentity := &identity.GoogleIdentity{
		Auth:       authClient,
		APIKey:     configuration.FIREBASE_API_KEY,
		RequestURI: configuration.BASE_URL,
	}

	sessions := &session.Manager{
		Store:    firebaseStore,
		Identity: googleIdentity,
		Codec:    codec,
		Log:      logger,
	}

	bridge := &oauthbridge.Bridge{
		Store:    firebaseStore,
		Identity: googleIdentity,
		Sessions: sessions,
		Config: &oauth2.Config{
			ClientID:     configuration.GCP_CLIENT_ID,
			ClientSecret: configuration.GCP_CLIENT_SECRET,
			RedirectURL:  configuration.BASE_URL + "/api/oauth/google",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		Log: logger,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	if configuration.CORS_ORIGIN != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{configuration.CORS_ORIGIN},
			AllowCredentials: true,
		}))
	}

	deps := httpserver.Deps{
		UserAuth:   &handlers.AuthHandler{Sessions: sessions, Identity: googleIdentity, Producer: prod, Role: models.RoleUser},
		AdminAuth:  &handlers.AuthHandler{Sessions: sessions, Identity: googleIdentity, Producer: prod, Role: models.RoleAdmin},
		OAuth:      &handlers.OAuthHandler{Bridge: bridge},
		Product:    &handlers.ProductHandler{Store: firebaseStore, ES: esClient, Index: "product", Producer: prod},
		Coupon:     &handlers.CouponHandler{Store: firebaseStore},
		Upload:     &handlers.UploadHandler{Bucket: bucket, BucketName: configuration.FIREBASE_STORAGE_BUCKET},
		Search:     &handlers.SearchHandler{ES: esClient, Index: "product"},
		AdminGuard: &authmw.Guard{Codec: codec, Role: models.RoleAdmin},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
