package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"autoquote/pkg/config"
	"autoquote/pkg/contracts"
	"autoquote/pkg/middleware"
	"autoquote/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

const IdempotencyHeader = "Idempotency-Key"

// Closer releases a resource during shutdown, after the server stopped
// accepting requests.
type Closer func(ctx context.Context) error

type Application struct {
	cfg              *config.Config
	server           *http.Server
	handler          http.Handler
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.PhoneRateLimiter
	closers          []Closer
	stopOnce         sync.Once
}

func NewApplication() *Application {
	return &Application{}
}

// SetApp builds the three middleware stacks: health endpoints get only
// recovery and logging, webhooks add the size limit and signature check, and
// everything else gets the full intake chain.
func (a *Application) SetApp(cfg *config.Config, health, api, webhooks contracts.Handler) {
	a.cfg = cfg

	mux := http.NewServeMux()
	healthHandler := a.healthHandler(health)
	mux.Handle("/health", healthHandler)
	mux.Handle("/ready", healthHandler)
	mux.Handle("/webhooks/", a.webhookHandler(webhooks))
	mux.Handle("/", a.apiHandler(api))
	a.handler = mux

	a.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	cfg.Log.Info("HTTP server configured", "port", cfg.Port)
}

// Handler returns the root handler, for tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// OnShutdown registers c to run, in registration order, during shutdown.
func (a *Application) OnShutdown(c Closer) {
	a.closers = append(a.closers, c)
}

func (a *Application) healthHandler(h contracts.Handler) http.Handler {
	router := httprouter.New()
	h.RegisterRoutes(router)

	var handler http.Handler = router
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
	return handler
}

func (a *Application) webhookHandler(h contracts.Handler) http.Handler {
	router := httprouter.New()
	h.RegisterRoutes(router)

	var handler http.Handler = router
	if a.cfg.WhatsApp.AppSecret != "" {
		handler = middleware.WhatsAppSignatureVerification(a.cfg.WhatsApp.AppSecret, a.cfg.Log)(handler)
		a.cfg.Log.Info("WhatsApp signature verification enabled")
	} else {
		a.cfg.Log.Warn("WhatsApp app secret not set, webhook signatures are not verified")
	}
	handler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	return handler
}

func (a *Application) apiHandler(h contracts.Handler) http.Handler {
	router := httprouter.New()
	h.RegisterRoutes(router)

	regions := []string{a.cfg.PhoneDefaultRegion}
	regions = append(regions, sanitizer.DefaultRegions...)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewPhoneRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.SubmittedPhoneExtractor(regions...),
		a.cfg.Log,
	)

	var handler http.Handler = router
	handler = middleware.Idempotency(a.idempotencyStore, IdempotencyHeader, a.cfg.Log)(handler)
	handler = middleware.RequestTimeout(a.cfg.RequestTimeout)(handler)
	handler = middleware.PhoneRateLimit(a.rateLimiter)(handler)
	handler = middleware.ContentTypeValidation(a.cfg.Log,
		middleware.ContentTypeJSON,
		middleware.ContentTypeForm,
		middleware.ContentTypeMultipart,
	)(handler)
	handler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
	return handler
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.Stop()
	a.cfg.Log.Info("Background workers stopped")

	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.cfg.Log.Error("Failed to release resource", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}

// Stop ends the middleware cleanup goroutines.
func (a *Application) Stop() {
	a.stopOnce.Do(func() {
		if a.idempotencyStore != nil {
			a.idempotencyStore.Stop()
		}
		if a.rateLimiter != nil {
			a.rateLimiter.Stop()
		}
	})
}
