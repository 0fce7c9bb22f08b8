package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/db"
	"github.com/inkpress/apiserver/internal/events"
	"github.com/inkpress/apiserver/internal/handlers"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/internal/token"
)

const denylistPurgeInterval = time.Hour

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
	stopPurge  context.CancelFunc
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	authorRepo := store.NewAuthorRepository(dbConn)
	blogRepo := store.NewBlogRepository(dbConn)
	entryRepo := store.NewEntryRepository(dbConn)
	revocationRepo := store.NewRevocationRepository(dbConn)

	tokenService := token.NewService(jwtSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, revocationRepo)
	userService := services.NewUserService(userRepo, photos)
	authService := services.NewAuthService(userRepo, tokenService)
	authorService := services.NewAuthorService(authorRepo, userService, userRepo, photos, publisher)
	blogService := services.NewBlogService(blogRepo)
	entryService := services.NewEntryService(entryRepo, blogRepo, authorRepo, publisher)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Use(handlers.Authenticate(userService, tokenService))
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authService)
		})
		r.Route("/authors", func(r chi.Router) {
			handlers.AuthorRouter(r, authorService)
		})
		r.Route("/blogs", func(r chi.Router) {
			handlers.BlogRouter(r, blogService)
		})
		r.Route("/entries", func(r chi.Router) {
			handlers.EntryRouter(r, entryService)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeDenylist(purgeCtx, revocationRepo)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		stopPurge:  stopPurge,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.stopPurge != nil {
		s.stopPurge()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newPhotoStore(ctx context.Context, cfg config.Config) (*storage.PhotoStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		photoStore := storage.NewPhotoStore(client)
		if err := photoStore.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return photoStore, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		photoStore := storage.NewPhotoStore(client)
		if err := photoStore.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return photoStore, nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newPublisher(ctx context.Context, cfg config.Config) (*events.Publisher, error) {
	switch cfg.Events.Backend {
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.Events.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.Events.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// purgeDenylist periodically drops revocation rows for tokens that
// have expired anyway.
func purgeDenylist(ctx context.Context, repo *store.RevocationRepository) {
	ticker := time.NewTicker(denylistPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := repo.PurgeExpired(ctx); err != nil {
				log.Printf("failed to purge expired revoked tokens: %v", err)
			}
		}
	}
}
