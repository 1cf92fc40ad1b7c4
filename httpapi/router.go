// Package httpapi lets automations outside of Home Assistant call bridge services and inspect the exposed lights.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nlowe/goveemqtt/bridge"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/service"
)

// Services is the subset of service.Registry used by the API.
type Services interface {
	Has(domain, name string) bool
	Call(ctx context.Context, domain, name string, call service.Call) error
}

// Lights lists the exposed lights.
type Lights interface {
	Lights() []bridge.LightInfo
}

// Refresher forces an immediate poll.
type Refresher interface {
	TriggerRefresh()
}

// API groups handlers and their dependencies.
type API struct {
	services  Services
	lights    Lights
	refresher []Refresher

	log *slog.Logger
}

func New(services Services, lights Lights, refreshers ...Refresher) *API {
	return &API{
		services:  services,
		lights:    lights,
		refresher: refreshers,
		log:       log.ForComponent("httpapi"),
	}
}

// NewRouter builds the routing tree for the API.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.recoverJSON)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(api.requestLogger)

	r.Get("/healthz", api.Health)
	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Get("/lights", api.ListLights)
		apiRouter.Post("/refresh", api.Refresh)
		apiRouter.Post("/services/{domain}/{service}", func(w http.ResponseWriter, r *http.Request) {
			api.CallService(w, r, chi.URLParam(r, "domain"), chi.URLParam(r, "service"))
		})
	})

	return r
}

// Serve runs an http.Server for handler on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.ForComponent("httpapi").With(slog.String("addr", addr)).Info("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}
