package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/liondadev/quick-file-stash/reader"
	"github.com/liondadev/quick-file-stash/registry"
	"github.com/liondadev/quick-file-stash/types"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 1024 * 1024 * 8

// handleNotFound is called when no other handlers match the request. In other words, this is called
// when the page is not found or the route doesn't exist.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) error {
	return PublicError{http.StatusNotFound, "Page not found."}
}

// publicUploadError turns reader and registry failures into something safe to show.
func publicUploadError(err error) error {
	switch {
	case errors.Is(err, reader.ErrTooLarge):
		return PublicError{http.StatusRequestEntityTooLarge, "File is too large."}
	case errors.Is(err, reader.ErrRead):
		return PublicError{http.StatusUnprocessableEntity, "Failed to read the file."}
	case errors.Is(err, registry.ErrPersist):
		return fmt.Errorf("store upload: %w", err)
	}

	return err
}

func fileIdParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "fileId"), 10, 64)
	if err != nil {
		return 0, PublicError{http.StatusBadRequest, "Invalid file id."}
	}

	return id, nil
}

// formFile pulls the "file" part out of a multipart request.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (*multipart.FileHeader, error) {
	if s.cfg.MaxUploadBytes > 0 {
		// leave some room for the multipart framing
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, PublicError{http.StatusRequestEntityTooLarge, "File is too large."}
		}

		return nil, PublicError{http.StatusBadRequest, "Expected a multipart form."}
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil, PublicError{http.StatusBadRequest, "No file provided."}
	}

	return files[0], nil
}

// bufferedFile copies a multipart file into memory. Multipart temp files are
// removed once the request ends, and a pending file has to outlive it.
func (s *Server) bufferedFile(fh *multipart.FileHeader) (reader.FileHandle, error) {
	if s.cfg.MaxUploadBytes > 0 && fh.Size > s.cfg.MaxUploadBytes {
		return nil, PublicError{http.StatusRequestEntityTooLarge, "File is too large."}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return reader.FromBytes(fh.Filename, fh.Header.Get("Content-Type"), data), nil
}

func (s *Server) fileLinks(rec types.FileRecord) (jMap, error) {
	id := strconv.FormatInt(rec.ID, 10)

	fileUrl, err := url.JoinPath(s.cfg.BasePath, "/f/", id)
	if err != nil {
		return nil, err
	}

	thumbUrl, err := url.JoinPath(s.cfg.BasePath, "/thumb/", id)
	if err != nil {
		return nil, err
	}

	return jMap{
		"file":          rec.Info(),
		"file_url":      fileUrl,
		"thumbnail_url": thumbUrl,
	}, nil
}

// handleListFiles handles GET /api/files. The data urls are left out.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) error {
	records := s.reg.List()
	files := make([]types.FileInfo, 0, len(records))
	for _, rec := range records {
		files = append(files, rec.Info())
	}

	writeJson(w, http.StatusOK, jMap{"files": files})
	return nil
}

// handleAddFile stores an uploaded file straight away, skipping the pending step.
func (s *Server) handleAddFile(w http.ResponseWriter, r *http.Request) error {
	fh, err := s.formFile(w, r)
	if err != nil {
		return err
	}

	rec, err := s.reg.Add(r.Context(), reader.FromMultipart(fh))
	if err != nil {
		return publicUploadError(err)
	}

	body, err := s.fileLinks(rec)
	if err != nil {
		return err
	}

	writeJson(w, http.StatusCreated, body)
	return nil
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) error {
	h, ok := s.reg.Pending()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	writeJson(w, http.StatusOK, jMap{
		"name": h.Name(),
		"type": h.Type(),
		"size": h.Size(),
	})
	return nil
}

// handleSelectPending stages a file for the next confirm, replacing any staged file.
func (s *Server) handleSelectPending(w http.ResponseWriter, r *http.Request) error {
	fh, err := s.formFile(w, r)
	if err != nil {
		return err
	}

	h, err := s.bufferedFile(fh)
	if err != nil {
		return err
	}
	s.reg.SelectPending(h)

	writeJson(w, http.StatusAccepted, jMap{"name": h.Name(), "size": h.Size()})
	return nil
}

// handleConfirmPending uploads the staged file and waits for it to be stored.
func (s *Server) handleConfirmPending(w http.ResponseWriter, r *http.Request) error {
	up, ok := s.reg.ConfirmUpload(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	rec, err := up.Wait(r.Context())
	if err != nil {
		return publicUploadError(err)
	}

	body, err := s.fileLinks(rec)
	if err != nil {
		return err
	}

	writeJson(w, http.StatusCreated, body)
	return nil
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) error {
	id, err := fileIdParam(r)
	if err != nil {
		return err
	}

	removed, err := s.reg.Remove(r.Context(), id)
	if err != nil {
		return err
	}

	writeJson(w, http.StatusOK, jMap{"removed": removed})
	return nil
}

func (s *Server) lookupFile(r *http.Request) (types.FileRecord, reader.Decoded, error) {
	id, err := fileIdParam(r)
	if err != nil {
		return types.FileRecord{}, reader.Decoded{}, err
	}

	rec, ok := s.reg.Get(id)
	if !ok {
		return types.FileRecord{}, reader.Decoded{}, PublicError{http.StatusNotFound, "File not found."}
	}

	dec, err := reader.Decode(rec.Data)
	if err != nil {
		return types.FileRecord{}, reader.Decoded{}, fmt.Errorf("decode file %d: %w", rec.ID, err)
	}

	return rec, dec, nil
}

// handleFileView serves the decoded bytes of a stored file as a download.
func (s *Server) handleFileView(w http.ResponseWriter, r *http.Request) error {
	rec, dec, err := s.lookupFile(r)
	if err != nil {
		return err
	}

	mimeType := rec.MimeType
	if mimeType == "" {
		mimeType = dec.MimeType
	}

	setCacheControlHeaders(w)
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(dec.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.Name}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, bytes.NewReader(dec.Data)); err != nil {
		return err
	}

	return nil
}

// handleThumbnailView handles people viewing the thumbnail images of files. The thumbnails
// fit in 480x270 and are pngs, or gifs for gif files.
func (s *Server) handleThumbnailView(w http.ResponseWriter, r *http.Request) error {
	rec, dec, err := s.lookupFile(r)
	if err != nil {
		return err
	}

	// If the file isn't one of the allowed thumbnail types, we
	// return the default thumbnail.
	if !slices.Contains(AllowedThumbnailMimeTypes, rec.MimeType) {
		defaultThumbnailPath, err := url.JoinPath(s.cfg.BasePath, "/assets/img/default_thumbnail.svg")
		if err != nil {
			return err
		}

		http.Redirect(w, r, defaultThumbnailPath, http.StatusPermanentRedirect) // perma because it can never magically get a thumbnail.
		return nil
	}

	thumb, thumbMime, err := MakeThumbnail(rec.MimeType, bytes.NewReader(dec.Data))
	if err != nil {
		return PublicError{http.StatusUnprocessableEntity, "Could not make a thumbnail for this file."}
	}

	setCacheControlHeaders(w)
	w.Header().Set("Content-Type", thumbMime)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, thumb); err != nil {
		return err
	}

	return nil
}

func setCacheControlHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=1800") // 30 min cache time
}
