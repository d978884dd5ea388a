package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/liondadev/quick-file-stash/config"
	"github.com/liondadev/quick-file-stash/logging"
	"github.com/liondadev/quick-file-stash/registry"
)

//go:embed assets/*
var assetFs embed.FS

type PublicError struct {
	Code    int
	Message string
}

func (pe PublicError) Error() string {
	return fmt.Sprintf("(%d) %s", pe.Code, pe.Message)
}

// HandlerWithError is a wrapper around a http.Handler that allows you to return an error.
type HandlerWithError func(w http.ResponseWriter, r *http.Request) error

func (h HandlerWithError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())

	defer func() {
		if err := recover(); err != nil {
			log.Error(r.Context(), "recovered from panic while handling request", "remote", r.RemoteAddr, "uri", r.RequestURI, "panic", err)

			writeJson(w, http.StatusInternalServerError, jMap{
				"error": "Unrecoverable Serverside Panic!",
			})
		}
	}()

	err := h(w, r)
	if err != nil {
		var perr PublicError
		if errors.As(err, &perr) {
			log.Warn(r.Context(), "public error when serving request", "remote", r.RemoteAddr, "uri", r.RequestURI, "err", err)
			writeJson(w, perr.Code, jMap{
				"error": perr.Message,
			})

			return
		}

		log.Error(r.Context(), "error when serving request", "remote", r.RemoteAddr, "uri", r.RequestURI, "err", err)
		writeJson(w, http.StatusInternalServerError, jMap{
			"error": "Internal Server Error!",
		})
	}
}

type Server struct {
	reg    *registry.Registry
	cfg    *config.Config
	log    logging.Logger
	status *uploadStatus
	mux    *chi.Mux
}

// New creates a new server over the registry. The server subscribes to the
// registry to show failed uploads on the page.
func New(cfg *config.Config, reg *registry.Registry, log logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		cfg:    cfg,
		reg:    reg,
		log:    log,
		status: &uploadStatus{},
	}
	reg.Subscribe(s.status)

	return s
}

func (s *Server) SetupHTTP() error {
	mux := chi.NewMux()

	mux.Use(middleware.RealIP)
	mux.Use(s.withLogger)
	mux.Use(middleware.Compress(5))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.CleanPath)

	// API Routes
	mux.Handle("GET /api/files", HandlerWithError(s.handleListFiles))
	mux.Handle("POST /api/files", HandlerWithError(s.handleAddFile))
	mux.Handle("DELETE /api/files/{fileId}", HandlerWithError(s.handleDeleteFile))
	mux.Handle("GET /api/pending", HandlerWithError(s.handleGetPending))
	mux.Handle("PUT /api/pending", HandlerWithError(s.handleSelectPending))
	mux.Handle("POST /api/pending/confirm", HandlerWithError(s.handleConfirmPending))
	mux.Handle("GET /f/{fileId}", FrontendHandlerWithError(s.handleFileView))
	mux.Handle("GET /thumb/{fileId}", FrontendHandlerWithError(s.handleThumbnailView))

	// Frontend Routes
	mux.Handle("GET /", FrontendHandlerWithError(s.handleIndexPage))
	mux.Handle("GET /app", FrontendHandlerWithError(s.handleIndexPage))
	mux.Handle("POST /app/select", FrontendHandlerWithError(s.handlePostSelect))
	mux.Handle("POST /app/upload", FrontendHandlerWithError(s.handlePostUpload))
	mux.Handle("POST /app/files/{fileId}/delete", FrontendHandlerWithError(s.handlePostDelete))

	// Redirects favicon to /assets/img/favicon.svg
	mux.Handle("GET /favicon.ico", HandlerWithError(func(w http.ResponseWriter, r *http.Request) error {
		path, err := url.JoinPath(s.cfg.BasePath, "/assets/img/favicon.svg")
		if err != nil {
			return err
		}
		http.Redirect(w, r, path, http.StatusPermanentRedirect)

		return nil
	}))

	// Static Assets
	httpFs := http.FileServerFS(assetFs)
	mux.Mount("/assets/", httpFs)

	// Not found handler
	mux.NotFound(FrontendHandlerWithError(s.handleNotFound).ServeHTTP)

	s.mux = mux

	return nil
}

// Handler returns the configured router.
func (s *Server) Handler() (http.Handler, error) {
	if s.mux == nil {
		return nil, errors.New("the http mux hasn't been configured yet, call setuphttp()")
	}

	return s.mux, nil
}

// Run serves until ctx is done, then shuts down gracefully and waits for
// in-flight uploads to land.
func (s *Server) Run(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "listening", "addr", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	s.reg.Wait()

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
