package routes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appmw "github.com/briangreenhill/petpet/internal/http/middleware"
	"github.com/briangreenhill/petpet/internal/service"
	"github.com/briangreenhill/petpet/petpet"
)

const infoText = "Hi! Use: /:id"

// Handler is the coordinator the routes delegate to.
type Handler interface {
	Handle(ctx context.Context, req service.Request) (*service.Response, error)
}

type Server struct {
	Router *chi.Mux
	Svc    Handler
}

type ServerOptions struct {
	Svc    Handler
	Logger zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(appmw.Logging(opts.Logger))
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Svc: opts.Svc}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})
	r.Get("/", s.handleHome)
	r.Get("/{id}", s.handleImage)

	return s
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(infoText)); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write home response")
	}
}

// handleImage serves /{id} and /{id}.gif. Query: mode=json|base64 (default
// binary gif), upd=true to bypass the cache read, speed=<token> to pick the
// resampling filter.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.Request{
		RawID:  chi.URLParam(r, "id"),
		Mode:   service.ParseMode(q.Get("mode")),
		Filter: petpet.ParseSpeed(q.Get("speed")),
		Force:  q.Get("upd") == "true",
	}

	resp, err := s.Svc.Handle(r.Context(), req)
	if err != nil {
		if service.IsClientError(err) {
			http.Error(w, "Invalid ID format", http.StatusBadRequest)
			return
		}
		http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", resp.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	if resp.CacheControl != "" {
		h.Set("Cache-Control", resp.CacheControl)
	}
	if resp.Hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.Body); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write image response")
	}
}
