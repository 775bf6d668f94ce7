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

	"github.com/skillsharecyber/courseplatform/internal/assets"
	"github.com/skillsharecyber/courseplatform/internal/config"
	"github.com/skillsharecyber/courseplatform/internal/es"
	"github.com/skillsharecyber/courseplatform/internal/events"
	"github.com/skillsharecyber/courseplatform/internal/handlers"
	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/mail"
	authmw "github.com/skillsharecyber/courseplatform/internal/middleware/auth"
	"github.com/skillsharecyber/courseplatform/internal/repo"
	"github.com/skillsharecyber/courseplatform/internal/revocation"
	"github.com/skillsharecyber/courseplatform/internal/session"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
	httpserver "github.com/skillsharecyber/courseplatform/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	rdb := config.NewRedisClient(configuration)
	repository := repo.New(db)
	issuer := tokens.NewIssuer(
		[]byte(configuration.JWT_SECRET),
		[]byte(configuration.REFRESH_SECRET),
	)
	registry := revocation.NewRegistry(rdb)
	core := &session.Core{Users: repository, Issuer: issuer, Registry: registry}

	producer := events.NewProducer([]string{configuration.KAFKA_ADDRESS})

	var mailer *mail.Mailer
	if configuration.SMTP_HOST != "" {
		mailer, err = mail.NewMailer(
			configuration.SMTP_HOST, configuration.SMTP_PORT,
			configuration.SMTP_USER, configuration.SMTP_PASS,
			configuration.MAIL_FROM,
		)
		if err != nil {
			log.Fatal(err)
		}
	}

	var uploader assets.Uploader
	if configuration.CLOUDINARY_CLOUD != "" {
		uploader, err = assets.NewCloudinary(
			configuration.CLOUDINARY_CLOUD,
			configuration.CLOUDINARY_KEY,
			configuration.CLOUDINARY_SECRET,
		)
		if err != nil {
			log.Fatal(err)
		}
	}

	oauthConfig := &oauth2.Config{
		ClientID:     configuration.GOOGLE_CLIENT_ID,
		ClientSecret: configuration.GOOGLE_CLIENT_SECRET,
		RedirectURL:  configuration.GOOGLE_REDIRECT_URL,
		Scopes:       []string{"profile", "email"},
		Endpoint:     google.Endpoint,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		Gate: &authmw.Gate{Users: repository, AccessSecret: []byte(configuration.JWT_SECRET)},
		UserHandler: &handlers.UserHandler{
			Repo: repository, Issuer: issuer, Producer: producer,
			Mailer: mailer, Uploader: uploader,
		},
		SessionHandler: &handlers.SessionHandler{Core: core},
		OAuthHandler: &handlers.OAuthHandler{
			Config: oauthConfig, Repo: repository, Issuer: issuer,
			FrontendURL: configuration.FRONTEND_URL,
		},
		CourseHandler: &handlers.CourseHandler{
			Repo: repository, Producer: producer, Uploader: uploader,
		},
		ActivityHandler: &handlers.ActivityHandler{Repo: repository},
		SearchHandler:   &handlers.SearchHandler{},
	}

	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		deps.CourseHandler.ES = client
		deps.SearchHandler.ES = client
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}
	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}
	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
