package reader

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileHandle is a file the user picked: what the platform knows about it
// plus a way to get at its bytes.
type FileHandle interface {
	Name() string
	// Type is the reported mime type, possibly empty.
	Type() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type bytesHandle struct {
	name string
	typ  string
	data []byte
}

// FromBytes wraps in-memory content as a FileHandle.
func FromBytes(name, mimeType string, data []byte) FileHandle {
	return &bytesHandle{name: name, typ: mimeType, data: data}
}

func (h *bytesHandle) Name() string { return h.name }
func (h *bytesHandle) Type() string { return h.typ }
func (h *bytesHandle) Size() int64  { return int64(len(h.data)) }
func (h *bytesHandle) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(h.data)), nil
}

type pathHandle struct {
	fs   afero.Fs
	path string
	typ  string
	size int64
}

// FromPath stats path on fsys and returns a handle named after its base name.
// The type is guessed from the extension and is empty when unknown, the same
// as a browser file picker.
func FromPath(fsys afero.Fs, path string) (FileHandle, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &pathHandle{
		fs:   fsys,
		path: path,
		typ:  TypeByName(path),
		size: info.Size(),
	}, nil
}

func (h *pathHandle) Name() string { return filepath.Base(h.path) }
func (h *pathHandle) Type() string { return h.typ }
func (h *pathHandle) Size() int64  { return h.size }
func (h *pathHandle) Open() (io.ReadCloser, error) {
	return h.fs.Open(h.path)
}

// TypeByName guesses a mime type from a file name's extension, without parameters.
func TypeByName(name string) string {
	t := mime.TypeByExtension(filepath.Ext(name))
	if t == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}

	return mediaType
}

type multipartHandle struct {
	fh *multipart.FileHeader
}

// FromMultipart wraps a file from a parsed multipart form.
func FromMultipart(fh *multipart.FileHeader) FileHandle {
	return &multipartHandle{fh: fh}
}

func (h *multipartHandle) Name() string { return h.fh.Filename }
func (h *multipartHandle) Type() string { return h.fh.Header.Get("Content-Type") }
func (h *multipartHandle) Size() int64  { return h.fh.Size }
func (h *multipartHandle) Open() (io.ReadCloser, error) {
	return h.fh.Open()
}
