// Package registry keeps the ordered collection of stored files.
//
// The collection lives in memory and is mirrored, as a single JSON array, to
// one key of a kv.Store. Every add or remove rewrites that key with one Put
// before the in-memory copy changes, so the two never disagree.
//
// Uploads follow the browser flow: SelectPending stages a file, ConfirmUpload
// clears the stage straight away and reads the file in the background. The
// record is appended only once the read finishes, so a Remove for an id that
// does not exist yet is simply a no-op.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/liondadev/quick-file-stash/kv"
	"github.com/liondadev/quick-file-stash/logging"
	"github.com/liondadev/quick-file-stash/reader"
	"github.com/liondadev/quick-file-stash/types"
)

// DefaultKey is the store key the collection is kept under.
const DefaultKey = "savedFiles"

var (
	// ErrPersist wraps failures to write the collection to the store.
	ErrPersist = errors.New("registry: persist failed")

	// ErrCorruptState is reported by LoadErr when the stored collection
	// could not be parsed and an empty registry was used instead.
	ErrCorruptState = errors.New("registry: stored collection is corrupt")
)

type Option func(*Registry)

// WithKey sets the store key. Empty keys are ignored.
func WithKey(key string) Option {
	return func(r *Registry) {
		if key != "" {
			r.key = key
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.log = l }
}

func WithReader(rd *reader.Reader) Option {
	return func(r *Registry) { r.reader = rd }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(r *Registry) { r.ids = g }
}

// WithClock sets the time source for upload dates, and for ids unless
// WithIDGenerator is also given.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithListener(l Listener) Option {
	return func(r *Registry) { r.listeners = append(r.listeners, l) }
}

type Registry struct {
	store  kv.Store
	key    string
	reader *reader.Reader
	ids    IDGenerator
	now    func() time.Time
	log    logging.Logger

	mu        sync.Mutex
	records   []types.FileRecord
	pending   reader.FileHandle
	listeners []Listener
	loadErr   error

	inflight sync.WaitGroup
}

// New loads the collection from store. A missing key gives an empty
// registry, and so does an unparsable value (see LoadErr). Only a failing
// store read is returned as an error.
func New(ctx context.Context, store kv.Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		store: store,
		key:   DefaultKey,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.reader == nil {
		r.reader = reader.New(0)
	}
	if r.ids == nil {
		r.ids = NewMillisIDs(r.now)
	}

	if err := r.load(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) load(ctx context.Context) error {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			r.records = []types.FileRecord{}
			return nil
		}
		return fmt.Errorf("registry: load %q: %w", r.key, err)
	}

	var records []types.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		r.loadErr = fmt.Errorf("%w: %w", ErrCorruptState, err)
		r.log.Warn(ctx, "stored collection is corrupt, starting empty", "key", r.key, "err", err)
		r.records = []types.FileRecord{}
		return nil
	}
	if records == nil {
		records = []types.FileRecord{}
	}

	for _, rec := range records {
		r.ids.Observe(rec.ID)
	}
	r.records = records

	r.log.Debug(ctx, "loaded collection", "key", r.key, "files", len(records))
	return nil
}

// LoadErr reports why the stored collection was discarded at startup, or
// nil if it loaded cleanly.
func (r *Registry) LoadErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

// Subscribe adds a listener for future changes.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// SelectPending stages h for the next ConfirmUpload, replacing any file
// already staged. Nothing is written to the store.
func (r *Registry) SelectPending(h reader.FileHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = h
}

// Pending returns the staged file, if any.
func (r *Registry) Pending() (reader.FileHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, r.pending != nil
}

// ConfirmUpload stores the staged file. It returns false when nothing is
// staged. Otherwise the stage is cleared before returning and the returned
// Upload completes once the file has been read and stored, or has failed.
func (r *Registry) ConfirmUpload(ctx context.Context) (*Upload, bool) {
	r.mu.Lock()
	h := r.pending
	r.pending = nil
	r.mu.Unlock()

	if h == nil {
		return nil, false
	}

	return r.start(ctx, h), true
}

// Add stores h and waits for the result, bypassing the pending stage.
func (r *Registry) Add(ctx context.Context, h reader.FileHandle) (types.FileRecord, error) {
	return r.start(ctx, h).Wait(ctx)
}

func (r *Registry) start(ctx context.Context, h reader.FileHandle) *Upload {
	u := newUpload(h.Name())

	// the read and the append outlive the caller's context
	bg := context.WithoutCancel(ctx)
	fut := r.reader.Read(bg, h)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		res, err := fut.Wait(bg)
		if err != nil {
			r.fail(bg, u, err)
			return
		}

		rec, err := r.append(bg, res)
		if err != nil {
			r.fail(bg, u, err)
			return
		}

		u.complete(rec, nil)
	}()

	return u
}

func (r *Registry) fail(ctx context.Context, u *Upload, err error) {
	r.log.Error(ctx, "upload failed", "name", u.Name(), "err", err)
	u.complete(types.FileRecord{}, err)

	for _, l := range r.snapshotListeners() {
		l.UploadFailed(u.Name(), err)
	}
}

func (r *Registry) append(ctx context.Context, res reader.Result) (types.FileRecord, error) {
	r.mu.Lock()

	rec := types.FileRecord{
		ID:         r.ids.Next(),
		Name:       res.Name,
		MimeType:   res.MimeType,
		Size:       res.Size,
		Data:       res.Data,
		UploadDate: types.FormatUploadDate(r.now()),
	}

	next := append(slices.Clone(r.records), rec)
	if err := r.persistLocked(ctx, next); err != nil {
		r.mu.Unlock()
		return types.FileRecord{}, err
	}
	r.records = next
	snapshot := slices.Clone(next)
	listeners := slices.Clone(r.listeners)

	r.mu.Unlock()

	r.log.Info(ctx, "stored file", "id", rec.ID, "name", rec.Name, "size", rec.Size)
	notifyChanged(listeners, snapshot)

	return rec, nil
}

// Remove deletes the record with the given id and persists the collection.
// It reports whether a record was removed; an unknown id is not an error.
// On a persist failure the in-memory collection is left unchanged.
func (r *Registry) Remove(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()

	idx := slices.IndexFunc(r.records, func(rec types.FileRecord) bool { return rec.ID == id })
	if idx < 0 {
		r.mu.Unlock()
		return false, nil
	}

	removed := r.records[idx]
	next := slices.Delete(slices.Clone(r.records), idx, idx+1)
	if err := r.persistLocked(ctx, next); err != nil {
		r.mu.Unlock()
		return false, err
	}
	r.records = next
	snapshot := slices.Clone(next)
	listeners := slices.Clone(r.listeners)

	r.mu.Unlock()

	r.log.Info(ctx, "removed file", "id", removed.ID, "name", removed.Name)
	notifyChanged(listeners, snapshot)

	return true, nil
}

// List returns a copy of the records in insertion order. It never touches the store.
func (r *Registry) List() []types.FileRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

// Get returns the record with the given id.
func (r *Registry) Get(id int64) (types.FileRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return rec, true
		}
	}

	return types.FileRecord{}, false
}

// Wait blocks until every upload started so far has completed.
func (r *Registry) Wait() {
	r.inflight.Wait()
}

func (r *Registry) persistLocked(ctx context.Context, records []types.FileRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersist, err)
	}

	if err := r.store.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	return nil
}

func (r *Registry) snapshotListeners() []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.listeners)
}

func notifyChanged(listeners []Listener, records []types.FileRecord) {
	for _, l := range listeners {
		l.RegistryChanged(slices.Clone(records))
	}
}
