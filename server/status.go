package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/liondadev/quick-file-stash/reader"
	"github.com/liondadev/quick-file-stash/types"
)

// uploadStatus remembers the last failed upload so the page can show it.
// Any later change to the registry clears it.
type uploadStatus struct {
	mu   sync.Mutex
	last string
}

func (u *uploadStatus) RegistryChanged(_ []types.FileRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = ""
}

func (u *uploadStatus) UploadFailed(name string, err error) {
	msg := fmt.Sprintf("Failed to upload %s.", name)
	if errors.Is(err, reader.ErrTooLarge) {
		msg = fmt.Sprintf("Failed to upload %s: the file is too large.", name)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = msg
}

func (u *uploadStatus) failure() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}
