package registry

import "github.com/liondadev/quick-file-stash/types"

// Listener is told about every change to the registry. Calls happen outside
// the registry lock, from whichever goroutine made the change, so a snapshot
// may already be stale when it arrives.
type Listener interface {
	// RegistryChanged receives a copy of the records after an add or remove.
	RegistryChanged(records []types.FileRecord)
	// UploadFailed is called when a confirmed upload could not be read or stored.
	UploadFailed(name string, err error)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Changed func(records []types.FileRecord)
	Failed  func(name string, err error)
}

func (l ListenerFuncs) RegistryChanged(records []types.FileRecord) {
	if l.Changed != nil {
		l.Changed(records)
	}
}

func (l ListenerFuncs) UploadFailed(name string, err error) {
	if l.Failed != nil {
		l.Failed(name, err)
	}
}
