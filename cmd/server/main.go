// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"funnelgate/internal/checkout"
	"funnelgate/internal/config"
	"funnelgate/internal/data"
	"funnelgate/internal/email"
	"funnelgate/internal/gate"
	"funnelgate/internal/info"
	"funnelgate/internal/logger"
	"funnelgate/internal/metrics"
	"funnelgate/internal/middleware"
	"funnelgate/internal/payment"
)

type App struct {
	addr        string
	handler     http.Handler
	connections sync.WaitGroup
}

func main() {
	// Step 1: configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Step 2: logging
	if err := logger.Setup(cfg.Logs); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.LogInfo("Environment loaded. Logger ready.")

	// Step 3: provider credentials
	if err := cfg.RequireProvider(); err != nil {
		logger.LogFatal("Failed to load provider config: %v", err)
	}

	// Step 4: storage
	db, err := data.Open(cfg.Data.DatabasePath)
	if err != nil {
		logger.LogFatal("Failed to open database: %v", err)
	}
	defer db.Close()

	// Step 5: assemble services
	m := metrics.New()
	provider := payment.NewBreakerService(payment.NewStripeService(cfg.Provider))
	mailer := email.NewSMTPMailer(cfg.SMTP, cfg.Email)

	sessionStore := buildSessionStore(cfg)
	verifier := gate.NewHTTPVerifier(cfg.Gate.VerifyURL, cfg.Gate.VerifyTimeout)
	accessGate := gate.New(sessionStore, verifier, cfg.Gate.SessionParam, cfg.Gate.RedirectURL, m)

	checkoutHandler := checkout.NewHandler(provider, db, mailer, m, cfg)
	infoHandler := info.NewHandler(db)

	app := &App{
		addr:    cfg.Server.Addr(),
		handler: routes(cfg, m, accessGate, checkoutHandler, infoHandler),
	}

	// Step 6: run server
	app.Run()
}

// buildSessionStore picks the Redis-backed store when configured, the
// cookie store otherwise.
func buildSessionStore(cfg *config.Config) gate.Store {
	if cfg.Redis.URL == "" {
		return gate.NewCookieStore(cfg.Gate.CookieName)
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.LogFatal("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.LogFatal("Redis ping failed: %v", err)
	}

	logger.LogInfo("Using Redis session store")
	return gate.NewRedisStore(client)
}

// routes assembles the router and middleware chain
func routes(cfg *config.Config, m *metrics.Metrics, accessGate *gate.Gate,
	checkoutHandler *checkout.Handler, infoHandler *info.Handler) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Instrument(m))
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.ClientDetection)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// The gate calls check-payment from the server's own address, so
		// every visitor's verification shares one client IP. Rate limiting
		// it would throttle paid visitors into spurious denials.
		api.Get("/check-payment", checkoutHandler.CheckPayment)

		api.Group(func(limited chi.Router) {
			limited.Use(middleware.RateLimit)
			limited.Post("/create-checkout-session", checkoutHandler.CreateSession)
			limited.Get("/summary", infoHandler.Summary)
		})
	})

	// Protected funnel pages: each funnel is a separate purchasable track.
	r.Route("/funnels", func(funnels chi.Router) {
		funnels.Handle("/{funnel}/results", protectedResults(accessGate))
	})

	return r
}

// protectedResults wraps the results page in the access gate, keyed by
// the funnel named in the path.
func protectedResults(accessGate *gate.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		funnel := chi.URLParam(r, "funnel")
		accessGate.Protect(funnel, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><body><h1>Your Results</h1><div id="results"></div></body></html>`))
		})).ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM.
func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.trackConnections(a.handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	<-stop
	logger.LogInfo("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	}

	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()
	logger.LogInfo("Server shut down gracefully")
}

// trackConnections counts in-flight requests so shutdown can wait for them
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		defer a.connections.Done()
		h.ServeHTTP(w, r)
	})
}
