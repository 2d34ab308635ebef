package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	docstore "github.com/maroltinger/votebox/internal/adapters/docstore/postgres"
	"github.com/maroltinger/votebox/internal/adapters/email"
	"github.com/maroltinger/votebox/internal/adapters/handler/http"
	repository "github.com/maroltinger/votebox/internal/adapters/repository/postgres"
	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var addr, dbHost, dbPort, dbUser, dbPass, dbName, allowedDomain, baseURL, itemList string
	flag.StringVar(&addr, "addr", envOr("VOTEBOX_ADDR", "0.0.0.0:8080"), "Listen address")
	flag.StringVar(&dbHost, "db-host", os.Getenv("POSTGRES_HOST"), "Database host")
	flag.StringVar(&dbPort, "db-port", os.Getenv("POSTGRES_PORT"), "Database port")
	flag.StringVar(&dbUser, "db-user", os.Getenv("POSTGRES_USER"), "Database user")
	flag.StringVar(&dbPass, "db-pass", os.Getenv("POSTGRES_PASSWORD"), "Database password")
	flag.StringVar(&dbName, "db-name", os.Getenv("POSTGRES_DB"), "Database name")
	flag.StringVar(&allowedDomain, "allowed-domain", envOr("VOTEBOX_ALLOWED_DOMAIN", "maroltingergasse.at"), "Email domain allowed to register")
	flag.StringVar(&baseURL, "base-url", envOr("VOTEBOX_BASE_URL", "http://localhost:8080"), "Public base URL for verification links")
	flag.StringVar(&itemList, "items", envOr("VOTEBOX_ITEMS", ""), "Comma-separated item codes (defaults to the built-in set)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPass, dbHost, dbPort, dbName)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	store, err := docstore.NewStore(db, connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	userRepo := repository.NewUserRepository(db)
	mailer := email.NewLogSender(baseURL)
	authService := services.NewAuthService(userRepo, mailer, services.AuthConfig{
		AllowedDomain: allowedDomain,
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:      24 * time.Hour,
	})

	hub := http.NewLiveHub()
	sessions := services.NewSessionManager(store, itemsConfig(itemList), hub.Notify)

	handler := http.NewHandler(
		http.NewAuthHandler(authService, sessions),
		http.NewVoteHandler(sessions),
		http.NewLiveHandler(hub, sessions),
		authService,
	)
	server := &stdhttp.Server{Addr: addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func itemsConfig(itemList string) []domain.ItemConfig {
	if itemList == "" {
		return domain.DefaultItems
	}
	var items []domain.ItemConfig
	for _, code := range strings.Split(itemList, ",") {
		code = strings.TrimSpace(code)
		if code != "" {
			items = append(items, domain.ItemConfig{ID: code})
		}
	}
	if len(items) == 0 {
		return domain.DefaultItems
	}
	return items
}
