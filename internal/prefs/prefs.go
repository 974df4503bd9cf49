// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefs stores per-user preferences that outlive a login, such as
// the "don't warn me about idle logout" choice.
//
// Preferences live in a small TOML file next to the configuration. A Store
// can watch the file so a change made by another process (the
// `storefront warnings off` command, or a hand edit) reaches a running
// session without a restart.
package prefs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/storefront-tui/internal/util"
)

// FileName is the preferences file name inside the data directory.
const FileName = "prefs.toml"

// DefaultDebounce coalesces the burst of events an atomic save produces.
const DefaultDebounce = 50 * time.Millisecond

// ErrWatching is returned by Watch when the store is already watching.
var ErrWatching = errors.New("prefs: already watching")

// Prefs is the persisted preference set.
type Prefs struct {
	// SuppressIdleWarning turns the idle timeout off: no warning is shown
	// and an inactive session is never signed out. Clearing it re-arms the
	// timeout, counting the time already spent idle.
	SuppressIdleWarning bool `toml:"suppress_idle_warning"`
}

// Store is a file-backed, concurrency-safe preference store.
type Store struct {
	path     string
	log      *log.Logger
	debounce time.Duration

	mu      sync.RWMutex
	cur     Prefs
	nextID  uint64
	subs    map[uint64]func(Prefs)
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// Open loads the preferences at path. A missing file yields the zero Prefs.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		log:      log.New(io.Discard),
		debounce: DefaultDebounce,
		subs:     make(map[uint64]func(Prefs)),
	}
	for _, opt := range opts {
		opt(s)
	}

	p, err := read(path)
	if err != nil {
		return nil, err
	}
	s.cur = p
	return s, nil
}

// OpenDir opens FileName inside dir.
func OpenDir(dir string, opts ...Option) (*Store, error) {
	return Open(filepath.Join(dir, FileName), opts...)
}

func read(path string) (Prefs, error) {
	var p Prefs
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read preferences: %w", err)
	}
	if _, err := toml.Decode(string(data), &p); err != nil {
		return p, fmt.Errorf("failed to decode preferences %s: %w", path, err)
	}
	return p, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Get returns the current preferences.
func (s *Store) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// SuppressIdleWarning reports whether idle warnings are suppressed.
func (s *Store) SuppressIdleWarning() bool {
	return s.Get().SuppressIdleWarning
}

// SetSuppressIdleWarning persists the suppression flag and notifies
// subscribers if it changed.
func (s *Store) SetSuppressIdleWarning(v bool) error {
	return s.Update(func(p *Prefs) { p.SuppressIdleWarning = v })
}

// Update applies fn to a copy of the preferences, saves the result
// atomically and notifies subscribers if anything changed.
func (s *Store) Update(fn func(*Prefs)) error {
	s.mu.Lock()
	next := s.cur
	fn(&next)
	if next == s.cur {
		s.mu.Unlock()
		return nil
	}
	if err := s.saveLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cur = next
	subs := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("PREFS_UPDATED", "suppress_idle_warning", next.SuppressIdleWarning)
	notify(subs, next)
	return nil
}

func (s *Store) saveLocked(p Prefs) error {
	var buf bytes.Buffer
	buf.WriteString("# storefront preferences\n")
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Reload re-reads the file and notifies subscribers if it changed.
func (s *Store) Reload() error {
	p, err := read(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if p == s.cur {
		s.mu.Unlock()
		return nil
	}
	s.cur = p
	subs := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("PREFS_RELOADED", "suppress_idle_warning", p.SuppressIdleWarning)
	notify(subs, p)
	return nil
}

// OnChange registers fn to run after every change, outside the store lock.
// The returned function unregisters it.
func (s *Store) OnChange(fn func(Prefs)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) snapshotLocked() []func(Prefs) {
	fns := make([]func(Prefs), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Prefs), p Prefs) {
	for _, fn := range fns {
		fn(p)
	}
}
