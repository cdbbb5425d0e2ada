package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"fueltrack/db/db"
	"fueltrack/mq/mq"
	"fueltrack/service"
)

type ServiceConfig struct {
	IsDev     bool
	Port      string
	RateLimit string
}

// NewRouter wires the REST api over svc. stream feeds /api/stream and may be
// nil when no in-process fan-out is configured.
func NewRouter(svc *service.Service, store db.FuelDBWrapper, stream mq.Subscriber[mq.LedgerMessage], conf ServiceConfig) (*gin.Engine, error) {
	if conf.IsDev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := setupMiddlewares(r, conf); err != nil {
		return nil, err
	}

	h := &handlers{svc: svc}
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/records", h.listRecords)
	api.POST("/records", h.addRecord)
	records := api.Group("/records/:id")
	records.Use(RecordDataLoaderInjectionMiddleware(store))
	records.GET("", h.getRecord)
	records.PUT("", h.editRecord)
	records.DELETE("", h.deleteRecord)
	api.GET("/tanks", h.listTanks)
	api.GET("/violations", h.listViolations)
	api.POST("/recompute", h.recompute)
	api.GET("/stream", streamHandler(stream, conf.IsDev))

	return r, nil
}

// Serve runs handler on port until ctx is done, then drains in-flight
// requests for up to five seconds.
func Serve(ctx context.Context, handler http.Handler, port string) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
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

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server exited gracefully")
	return nil
}
