package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/unitycatalogsrv/internal/apis"
	"github.com/mugiliam/unitycatalogsrv/internal/apis/sharingapi"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
	"github.com/mugiliam/unitycatalogsrv/internal/server/middleware"
	"github.com/mugiliam/unitycatalogsrv/internal/sharing"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type CatalogServer struct {
	Router   *chi.Mux
	Managers *catalogmanager.Managers
	Sharing  *sharing.Service

	cfg     config.Config
	store   db.GraphDB
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Options carries the dependencies of a CatalogServer that tests replace.
type Options struct {
	Logger *zerolog.Logger
	Clock  func() time.Time
}

func CreateNewServer(cfg config.Config, store db.GraphDB, m *metrics.Metrics, opts Options) (*CatalogServer, error) {
	signer, err := sharing.NewHMACSigner(cfg.Sharing.SigningKey)
	if err != nil {
		return nil, err
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	s := &CatalogServer{
		Router: chi.NewRouter(),
		Managers: catalogmanager.New(store, catalogmanager.Options{
			TokenLifetime: cfg.Sharing.TokenLifetime.Duration,
			Clock:         opts.Clock,
			SecretKey:     cfg.Store.SecretKey,
		}),
		Sharing: sharing.NewService(store, signer, sharing.Options{
			URLExpiration: cfg.Sharing.URLExpiration.Duration,
			Clock:         opts.Clock,
		}),
		cfg:     cfg,
		store:   store,
		metrics: m,
		logger:  logger,
	}
	return s, nil
}

func (s *CatalogServer) MountHandlers() {
	s.Router.Use(middleware.RequestLogger(s.logger)...)
	if s.metrics != nil {
		s.Router.Use(middleware.Metrics(s.metrics))
	}
	if s.cfg.Server.HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.NotFound(httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
		return nil, httpx.ErrRouteNotFound.Msg("no route for " + r.Method + " " + r.URL.Path)
	}))
	s.Router.MethodNotAllowed(httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
		return nil, httpx.ErrMethodNotAllowed.Msg("method " + r.Method + " not allowed on " + r.URL.Path)
	}))

	s.Router.Get("/version", s.getVersion)
	s.Router.Get("/healthz", s.healthz)
	if s.metrics != nil {
		s.Router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.Router.Route(apis.Prefix, s.mountResourceHandlers)
	s.Router.Route(sharingapi.Prefix, s.mountSharingHandlers)

	if s.logger.GetLevel() <= zerolog.TraceLevel {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			s.logger.Trace().Str("method", method).Str("route", route).Msg("route")
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			s.logger.Error().Err(err).Msg("unable to walk routes")
		}
	}
}

func (s *CatalogServer) mountResourceHandlers(r chi.Router) {
	r.Use(middleware.RateLimit(s.cfg.Server.RateLimit, s.cfg.Server.RateBurst, s.metrics))
	apis.New(s.Managers).Router(r)
}

func (s *CatalogServer) mountSharingHandlers(r chi.Router) {
	r.Use(middleware.RateLimit(s.cfg.Server.RateLimit, s.cfg.Server.RateBurst, s.metrics))
	r.Use(middleware.LoadRecipientContext(s.Managers.Recipients, s.cfg.Sharing.RequireAuthentication))
	sharingapi.New(s.Sharing, s.metrics).Router(r)
}

func (s *CatalogServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.GetVersionRsp{
		ServerVersion: "UnityCatalogSrv: " + api.ServerVersion,
		ApiVersion:    api.ApiVersion_2_1,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *CatalogServer) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		httpx.SendError(ctx, w, err)
		return
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *CatalogServer) HandleCORS(next http.Handler) http.Handler {
	origin := s.cfg.Server.CORSAllowedOrigin
	if origin == "" {
		origin = "*"
	}
	methods := strings.Join([]string{http.MethodPost, http.MethodGet, http.MethodOptions, http.MethodPatch, http.MethodDelete}, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, "+sharing.CapabilitiesHeader)
		w.Header().Set("Access-Control-Expose-Headers", sharingapi.TableVersionHeader+", X-Request-ID")

		if r.Method == http.MethodOptions {
			log.Ctx(r.Context()).Debug().Msg("OPTIONS request")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var ErrServer apperrors.Error = apperrors.ErrUnavailable.New("server error")

// Serve runs the HTTP server on the configured address until ctx is done, then
// shuts down gracefully.
func (s *CatalogServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.ListenAddress,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return s.logger.WithContext(context.Background()) },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", srv.Addr).Msg("catalog server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("catalog server failed")
			return ErrServer.MsgErr("http server", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down catalog server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ErrServer.MsgErr("http server shutdown", err)
	}
	return nil
}
