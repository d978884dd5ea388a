package reader

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandle struct {
	err error
}

func (h failingHandle) Name() string                 { return "broken.bin" }
func (h failingHandle) Type() string                 { return "" }
func (h failingHandle) Size() int64                  { return 3 }
func (h failingHandle) Open() (io.ReadCloser, error) { return nil, h.err }

type gatedHandle struct {
	FileHandle
	gate chan struct{}
}

func (h gatedHandle) Open() (io.ReadCloser, error) {
	<-h.gate
	return h.FileHandle.Open()
}

func TestReadSuccess(t *testing.T) {
	r := New(0)
	f := r.Read(context.Background(), FromBytes("a.txt", "text/plain", []byte("0123456789")))

	res, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Completed())
	assert.Equal(t, "a.txt", res.Name)
	assert.Equal(t, "text/plain", res.MimeType)
	assert.Equal(t, int64(10), res.Size)

	dec, err := Decode(res.Data)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), dec.Data)
	assert.Equal(t, "text/plain", dec.MimeType)
}

func TestReadZeroBytes(t *testing.T) {
	res, err := New(0).Read(context.Background(), FromBytes("empty", "", nil)).Wait(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Size)
	assert.Equal(t, "data:application/octet-stream;base64,", res.Data)

	dec, err := Decode(res.Data)
	require.NoError(t, err)
	assert.Empty(t, dec.Data)
}

func TestReadFailureIsReported(t *testing.T) {
	boom := errors.New("permission denied")
	_, err := New(0).Read(context.Background(), failingHandle{err: boom}).Wait(context.Background())

	require.ErrorIs(t, err, ErrRead)
	require.ErrorIs(t, err, boom)
}

func TestReadTooLarge(t *testing.T) {
	r := New(4)

	_, err := r.ReadNow(context.Background(), FromBytes("big", "", []byte("12345")))
	require.ErrorIs(t, err, ErrTooLarge)
	require.ErrorIs(t, err, ErrRead)

	res, err := r.ReadNow(context.Background(), FromBytes("ok", "", []byte("1234")))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Size)
}

func TestReadIsAsynchronous(t *testing.T) {
	gate := make(chan struct{})
	f := New(0).Read(context.Background(), gatedHandle{FileHandle: FromBytes("a", "", []byte("a")), gate: gate})

	assert.False(t, f.Completed())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	<-f.Done()
	res, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Size)
}

func TestReadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(0).Read(ctx, FromBytes("a", "", []byte("a"))).Wait(context.Background())
	require.ErrorIs(t, err, ErrRead)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromPath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/in/photo.png", []byte("png!"), 0o600))
	require.NoError(t, afero.WriteFile(fsys, "/in/notes.unknownext", []byte("??"), 0o600))

	h, err := FromPath(fsys, "/in/photo.png")
	require.NoError(t, err)
	assert.Equal(t, "photo.png", h.Name())
	assert.Equal(t, "image/png", h.Type())
	assert.Equal(t, int64(4), h.Size())

	res, err := New(0).ReadNow(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cG5nIQ==", res.Data)

	h, err = FromPath(fsys, "/in/notes.unknownext")
	require.NoError(t, err)
	assert.Equal(t, "", h.Type())

	_, err = FromPath(fsys, "/in")
	require.Error(t, err)
	_, err = FromPath(fsys, "/missing")
	require.Error(t, err)
}
