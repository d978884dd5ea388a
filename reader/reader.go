// Package reader turns picked files into self-describing data urls.
//
// Reads are asynchronous: Reader.Read returns a Future straight away and the
// bytes are read and encoded on another goroutine. A Future completes exactly
// once, with either a Result or an error wrapping ErrRead.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// ErrRead wraps every failure to read a picked file.
	ErrRead = errors.New("reader: read failed")

	// ErrTooLarge is returned when a file exceeds Reader.MaxBytes.
	ErrTooLarge = errors.New("reader: file too large")
)

// Result is a successfully read file.
type Result struct {
	Name     string
	MimeType string
	Size     int64
	// Data is the content as a data url.
	Data string
}

// Future is the outcome of one Read.
type Future struct {
	done chan struct{}
	once sync.Once
	res  Result
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(res Result, err error) {
	f.once.Do(func() {
		f.res, f.err = res, err
		close(f.done)
	})
}

// Done is closed once the read has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Completed reports whether the read has finished, without blocking.
func (f *Future) Completed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the read finishes or ctx is done. A ctx error only
// stops the waiting, the read carries on.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Reader reads FileHandles into data urls.
type Reader struct {
	// MaxBytes caps the content size, 0 means no cap.
	MaxBytes int64
}

func New(maxBytes int64) *Reader {
	return &Reader{MaxBytes: maxBytes}
}

// Read starts reading h and returns immediately. Cancelling ctx fails the
// read if it hasn't finished yet.
func (r *Reader) Read(ctx context.Context, h FileHandle) *Future {
	f := newFuture()
	go func() {
		res, err := r.ReadNow(ctx, h)
		f.complete(res, err)
	}()

	return f
}

// ReadNow reads h on the calling goroutine.
func (r *Reader) ReadNow(ctx context.Context, h FileHandle) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrRead, h.Name(), err)
	}

	rc, err := h.Open()
	if err != nil {
		return Result{}, fmt.Errorf("%w: open %s: %w", ErrRead, h.Name(), err)
	}
	defer rc.Close()

	var src io.Reader = &ctxReader{ctx: ctx, r: rc}
	if r.MaxBytes > 0 {
		src = io.LimitReader(src, r.MaxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrRead, h.Name(), err)
	}

	if r.MaxBytes > 0 && int64(len(data)) > r.MaxBytes {
		return Result{}, fmt.Errorf("%w: %w: %s is over %d bytes", ErrRead, ErrTooLarge, h.Name(), r.MaxBytes)
	}

	return Result{
		Name:     h.Name(),
		MimeType: h.Type(),
		Size:     int64(len(data)),
		Data:     Encode(data, h.Type()),
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
