package registry

import (
	"context"
	"sync"

	"github.com/liondadev/quick-file-stash/types"
)

// Upload is a confirmed upload that may still be reading. It completes
// exactly once, with the stored record or the reason nothing was stored.
type Upload struct {
	name string
	done chan struct{}
	once sync.Once
	rec  types.FileRecord
	err  error
}

func newUpload(name string) *Upload {
	return &Upload{name: name, done: make(chan struct{})}
}

func (u *Upload) complete(rec types.FileRecord, err error) {
	u.once.Do(func() {
		u.rec, u.err = rec, err
		close(u.done)
	})
}

// Name is the name of the file being uploaded.
func (u *Upload) Name() string { return u.name }

// Done is closed once the upload has been stored or has failed.
func (u *Upload) Done() <-chan struct{} { return u.done }

// Wait blocks until the upload completes or ctx is done. Giving up on the
// wait does not cancel the upload.
func (u *Upload) Wait(ctx context.Context) (types.FileRecord, error) {
	select {
	case <-u.done:
		return u.rec, u.err
	case <-ctx.Done():
		return types.FileRecord{}, ctx.Err()
	}
}
