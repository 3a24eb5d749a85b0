package lcu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// StoreConfig controls where credentials are looked up.
type StoreConfig struct {
	// LockfilePath pins the lockfile location. When empty the usual install
	// locations are searched.
	LockfilePath string

	// InstallDir is searched before the default install locations.
	InstallDir string

	// ProcessFallback enables reading credentials from the client process
	// command line when no lockfile is found.
	ProcessFallback bool
}

// CredentialStore caches the client's credentials. The cache is dropped when
// a request fails or the lockfile changes on disk.
type CredentialStore struct {
	cfg StoreConfig

	mu     sync.Mutex
	cached *Credentials
}

// NewCredentialStore creates a credential store.
func NewCredentialStore(cfg StoreConfig) *CredentialStore {
	return &CredentialStore{cfg: cfg}
}

// Get returns cached credentials or discovers them.
func (s *CredentialStore) Get(ctx context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	creds, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = creds
	log.Debug().Int("port", creds.Port).Int("pid", creds.PID).Msg("discovered client credentials")
	return creds, nil
}

// Invalidate drops the cached credentials.
func (s *CredentialStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

func (s *CredentialStore) paths() []string {
	if s.cfg.LockfilePath != "" {
		return []string{s.cfg.LockfilePath}
	}
	return DefaultLockfilePaths(s.cfg.InstallDir)
}

func (s *CredentialStore) discover(ctx context.Context) (*Credentials, error) {
	for _, path := range s.paths() {
		creds, err := ReadLockfile(path)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			log.Debug().Err(err).Str("path", path).Msg("unreadable lockfile")
		}
	}

	if !s.cfg.ProcessFallback {
		return nil, ErrNotRunning
	}

	cmdline, err := processCommandLine(ctx)
	if err != nil {
		if errors.Is(err, ErrNotRunning) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	creds, err := ParseCommandLine(cmdline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	return creds, nil
}

// Watch invalidates the cache whenever a lockfile is written or removed. It
// blocks until ctx is done. Directories that do not exist are skipped.
func (s *CredentialStore) Watch(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create lockfile watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	watched := make(map[string]bool)
	for _, path := range s.paths() {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if addErr := watcher.Add(dir); addErr != nil {
			continue
		}
		watched[dir] = true
	}
	if len(watched) == 0 {
		log.Debug().Msg("no lockfile directory to watch")
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "lockfile" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Debug().Str("op", event.Op.String()).Msg("lockfile changed, dropping cached credentials")
				s.Invalidate()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(werr).Msg("lockfile watcher error")
		}
	}
}
