// Package pages holds the html components of the stash frontend.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/liondadev/quick-file-stash/types"
)

// IndexView is everything the file list page shows.
type IndexView struct {
	BasePath string
	Files    []types.FileRecord
	// Pending is the name of the selected but unconfirmed file, if any.
	Pending string
	// Failure describes the last upload that failed, if any.
	Failure string
	Now     time.Time
}

func link(base string, parts ...string) string {
	u, err := url.JoinPath(base, parts...)
	if err != nil {
		return "/"
	}
	return u
}

type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func layout(title, base string, body func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title>`)
		h.rawf(`<link rel="stylesheet" href="%s">`, templ.EscapeString(link(base, "/assets/style.css")))
		h.raw(`</head><body><main class="container">`)
		body(h)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Index renders the upload form and the stored files.
func Index(v IndexView) templ.Component {
	return layout("File Upload Demo", v.BasePath, func(h *htmlWriter) {
		h.raw(`<h1>File Upload Demo</h1>`)

		h.raw(`<section class="card">`)
		h.rawf(`<form method="post" action="%s" enctype="multipart/form-data">`, templ.EscapeString(link(v.BasePath, "/app/select")))
		h.raw(`<input type="file" name="file" onchange="this.form.submit()">`)
		h.raw(`<noscript><button type="submit">Select</button></noscript></form>`)

		h.rawf(`<form method="post" action="%s">`, templ.EscapeString(link(v.BasePath, "/app/upload")))
		if v.Pending != "" {
			h.raw(`<p class="pending">Selected: `)
			h.text(v.Pending)
			h.raw(`</p><button type="submit" class="primary">Upload File</button>`)
		} else {
			h.raw(`<button type="submit" disabled>Upload File</button>`)
		}
		h.raw(`</form>`)

		if v.Failure != "" {
			h.raw(`<p class="failure">`)
			h.text(v.Failure)
			h.raw(`</p>`)
		}
		h.raw(`</section>`)

		h.raw(`<section class="card"><h2>Stored Files</h2><ul class="files">`)
		for _, f := range v.Files {
			id := strconv.FormatInt(f.ID, 10)

			h.raw(`<li><div><h3>`)
			h.text(f.Name)
			h.raw(`</h3><p class="meta">`)
			h.text(FormatSize(f.Size) + " • " + FormatDate(f.UploadedAt(), v.Now))
			h.raw(`</p></div><div class="actions">`)
			h.rawf(`<a href="%s" download="%s">Download</a>`, templ.EscapeString(f.Data), templ.EscapeString(f.Name))
			h.rawf(`<form method="post" action="%s">`, templ.EscapeString(link(v.BasePath, "/app/files", id, "delete")))
			h.raw(`<button type="submit" class="danger">Delete</button></form>`)
			h.raw(`</div></li>`)
		}
		if len(v.Files) == 0 {
			h.raw(`<li class="empty">No files uploaded yet</li>`)
		}
		h.raw(`</ul></section>`)
	})
}

// Error renders an error page. dur is how long the request took.
func Error(dur, title, message string) templ.Component {
	return layout(title, "/", func(h *htmlWriter) {
		h.raw(`<section class="card error"><h1>`)
		h.text(title)
		h.raw(`</h1><p>`)
		h.text(message)
		h.raw(`</p><p class="meta">`)
		h.text(dur)
		h.raw(`</p></section>`)
	})
}
