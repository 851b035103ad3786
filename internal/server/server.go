// Package server exposes the dashboard pages and their refresh controls over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"live-dashboard/internal/render"
	"live-dashboard/internal/scheduler"
	"live-dashboard/internal/service"
	"live-dashboard/internal/session"
)

var validate = validator.New()

// Options configure the HTTP listener.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Chart        render.ChartOptions
}

// Server serves one dashboard session.
type Server struct {
	opts    Options
	session *session.Session
	crypto  *service.CryptoPage
	weather *service.WeatherPage
	logger  zerolog.Logger
}

// New constructs a server around an existing session and its pages.
func New(sess *session.Session, crypto *service.CryptoPage, weather *service.WeatherPage, opts Options, logger zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	return &Server{
		opts:    opts,
		session: sess,
		crypto:  crypto,
		weather: weather,
		logger:  logger.With().Str("component", "server").Logger(),
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.requestLogger)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", s.health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/crypto", s.getCrypto)
		r.Get("/crypto/chart.png", s.getCryptoChart)
		r.Get("/weather", s.getWeather)
		r.Get("/weather/chart.png", s.getWeatherChart)
		r.Get("/weather/history.csv", s.getWeatherCSV)
		r.Get("/refresh/{page}", s.getRefresh)
		r.Put("/refresh/{page}", s.putRefresh)
	})
	return router
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("listening")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"session_id": s.session.ID.String(),
	})
}

func (s *Server) getCrypto(w http.ResponseWriter, r *http.Request) {
	view := s.crypto.Cycle(r.Context())
	writeJSON(w, http.StatusOK, newCryptoResponse(view))
}

func (s *Server) getCryptoChart(w http.ResponseWriter, r *http.Request) {
	view := s.crypto.Cycle(r.Context())
	s.writePNG(w, func(out io.Writer) error {
		return render.PriceBarChart(out, view.Table, s.opts.Chart)
	})
}

func (s *Server) getWeather(w http.ResponseWriter, r *http.Request) {
	view := s.weather.Cycle(r.Context())
	writeJSON(w, http.StatusOK, newWeatherResponse(view))
}

func (s *Server) getWeatherChart(w http.ResponseWriter, r *http.Request) {
	view := s.weather.Cycle(r.Context())
	s.writePNG(w, func(out io.Writer) error {
		return render.TemperatureChart(out, view.History, s.opts.Chart)
	})
}

func (s *Server) getWeatherCSV(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := render.WeatherCSV(&buf, s.weather.History().All()); err != nil {
		s.logger.Error().Err(err).Msg("render weather csv")
		writeError(w, http.StatusInternalServerError, "failed to render history")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="weather_history.csv"`)
	_, _ = w.Write(buf.Bytes())
}

type refreshRequest struct {
	Enabled         bool `json:"enabled"`
	IntervalSeconds int  `json:"interval_seconds" validate:"required,min=10,max=120"`
}

type refreshResponse struct {
	Page            string `json:"page"`
	Enabled         bool   `json:"enabled"`
	IntervalSeconds int    `json:"interval_seconds"`
}

func (s *Server) getRefresh(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	controls := s.session.Refresh(page)
	if controls == nil {
		writeError(w, http.StatusNotFound, "unknown page")
		return
	}
	writeJSON(w, http.StatusOK, newRefreshResponse(page, controls))
}

func (s *Server) putRefresh(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	controls := s.session.Refresh(page)
	if controls == nil {
		writeError(w, http.StatusNotFound, "unknown page")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := controls.SetInterval(time.Duration(req.IntervalSeconds) * time.Second); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	controls.SetEnabled(req.Enabled)

	s.logger.Info().Str("page", page).Bool("enabled", req.Enabled).Int("interval_seconds", req.IntervalSeconds).Msg("refresh controls updated")
	writeJSON(w, http.StatusOK, newRefreshResponse(page, controls))
}

func newRefreshResponse(page string, controls *scheduler.Controls) refreshResponse {
	return refreshResponse{
		Page:            page,
		Enabled:         controls.Enabled(),
		IntervalSeconds: int(controls.Interval() / time.Second),
	}
}

func (s *Server) writePNG(w http.ResponseWriter, draw func(io.Writer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		if errors.Is(err, render.ErrTooFewPoints) || errors.Is(err, render.ErrEmptyTable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("render chart")
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
