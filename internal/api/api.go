package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/susu3304/snacknav/internal/config"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geourl"
	"github.com/susu3304/snacknav/internal/walk"
)

const discordAPIBase = "https://discord.com/api"

type API struct {
	router      *mux.Router
	server      *http.Server
	walk        *walk.Service
	searcher    geocode.Searcher
	mapsClient  *http.Client
	config      *config.Config
	oauthConfig *oauth2.Config
	discordAPI  string
	jwtSecret   []byte
	logger      *zap.Logger
}

// New wires the HTTP surface over the walk service. searcher may be nil, in
// which case geocoding endpoints return no candidates.
func New(cfg *config.Config, svc *walk.Service, searcher geocode.Searcher, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &API{
		router:     mux.NewRouter(),
		walk:       svc,
		searcher:   searcher,
		mapsClient: geourl.NewClient(15 * time.Second),
		config:     cfg,
		discordAPI: discordAPIBase,
		jwtSecret:  []byte(cfg.JWTSecret),
		logger:     logger,
	}
	if cfg.OAuthEnabled() {
		api.oauthConfig = &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		}
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	// Auth endpoints
	a.router.HandleFunc("/api/sessions", a.handleCreateSession).Methods("POST")
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")

	// Public endpoints
	a.router.HandleFunc("/api/places", a.handlePlaces).Methods("GET")
	a.router.HandleFunc("/api/rewards", a.handleRewards).Methods("GET")
	a.router.HandleFunc("/api/tasks", a.handleTasks).Methods("GET")
	a.router.HandleFunc("/api/cities", a.handleCities).Methods("GET")
	a.router.HandleFunc("/api/geocode", a.handleGeocode).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api/session").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("", a.handleGetSession).Methods("GET")
	protected.HandleFunc("/position", a.handleSetPosition).Methods("POST")
	protected.HandleFunc("/search", a.handleSearch).Methods("POST")
	protected.HandleFunc("/select", a.handleSelect).Methods("POST")
	protected.HandleFunc("/tab", a.handleRewardTab).Methods("POST")
	protected.HandleFunc("/step", a.handleStep).Methods("POST")
	protected.HandleFunc("/nearby", a.handleNearby).Methods("GET")
	protected.HandleFunc("/challenge", a.handleChallenge).Methods("POST")
	protected.HandleFunc("/rewards/{id}/claim", a.handleClaim).Methods("POST")
	protected.HandleFunc("/history", a.handleHistory).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// When AllowedOrigins is "*", AllowCredentials must be false
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start blocks serving HTTP until Shutdown is called.
func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("API server listening", zap.String("addr", "http://"+a.config.WebBind))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
