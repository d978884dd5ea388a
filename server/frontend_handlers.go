package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/liondadev/quick-file-stash/server/pages"
)

// FrontendHandlerWithError is almost identical to HandlerWithError, but it handles
// erroneous responses by responding with an error page, not json
type FrontendHandlerWithError func(w http.ResponseWriter, r *http.Request) error

func (h FrontendHandlerWithError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())

	defer func() {
		if err := recover(); err != nil {
			log.Error(r.Context(), "recovered from panic while handling frontend request", "remote", r.RemoteAddr, "uri", r.RequestURI, "panic", err)
			_ = writeHTML(w, http.StatusInternalServerError, pages.Error("PANIC", "500 - Internal Server Error", "Unrecoverable Server Panic"))
		}
	}()

	start := time.Now()
	err := h(w, r)
	dur := time.Since(start).String()
	if err != nil {
		var perr PublicError
		if errors.As(err, &perr) {
			log.Warn(r.Context(), "public error when serving frontend request", "remote", r.RemoteAddr, "uri", r.RequestURI, "err", err)
			_ = writeHTML(w, perr.Code, pages.Error(dur, strconv.Itoa(perr.Code)+" - "+http.StatusText(perr.Code), perr.Message))

			return
		}

		log.Error(r.Context(), "error when serving frontend request", "remote", r.RemoteAddr, "uri", r.RequestURI, "err", err)
		_ = writeHTML(w, http.StatusInternalServerError, pages.Error(dur, "500 - Internal Server Error", "Internal Server Error"))
	}
}

func writeHTML(w http.ResponseWriter, status int, html templ.Component) error {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	return html.Render(context.Background(), w)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) error {
	home, err := url.JoinPath(s.cfg.BasePath, "/")
	if err != nil {
		return err
	}

	http.Redirect(w, r, home, http.StatusSeeOther)
	return nil
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) error {
	view := pages.IndexView{
		BasePath: s.cfg.BasePath,
		Files:    s.reg.List(),
		Failure:  s.status.failure(),
		Now:      time.Now(),
	}
	if h, ok := s.reg.Pending(); ok {
		view.Pending = h.Name()
	}

	return writeHTML(w, http.StatusOK, pages.Index(view))
}

// handlePostSelect stages the picked file. The page submits this as soon as a file is chosen.
func (s *Server) handlePostSelect(w http.ResponseWriter, r *http.Request) error {
	fh, err := s.formFile(w, r)
	if err != nil {
		return err
	}

	h, err := s.bufferedFile(fh)
	if err != nil {
		return err
	}
	s.reg.SelectPending(h)

	return s.redirectHome(w, r)
}

// handlePostUpload confirms the staged file. Read and store failures end up
// on the page through the upload status, not as an error page.
func (s *Server) handlePostUpload(w http.ResponseWriter, r *http.Request) error {
	if up, ok := s.reg.ConfirmUpload(r.Context()); ok {
		// the outcome is recorded by the status listener
		_, _ = up.Wait(r.Context())
	}

	return s.redirectHome(w, r)
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) error {
	id, err := fileIdParam(r)
	if err != nil {
		return err
	}

	if _, err := s.reg.Remove(r.Context(), id); err != nil {
		return err
	}

	return s.redirectHome(w, r)
}
