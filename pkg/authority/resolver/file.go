package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// identityFile is the on-disk shape of an identity map:
//
//	principals:
//	  "system:kernel": SYSTEM
//	  "admin:alice":   ADMIN
//	  "user:bob":      USER
//	default_to_user: false
type identityFile struct {
	Principals    map[string]string `yaml:"principals"`
	DefaultToUser bool              `yaml:"default_to_user"`
}

// FileResolver resolves principals against a YAML identity map on disk and
// reloads the map when the file changes. Reloads are debounced to absorb
// editor write storms; a reload that fails to parse keeps the previous
// mapping in place.
type FileResolver struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	levels  map[string]authority.AuthorityLevel
	config  Config
	watcher *fsnotify.Watcher

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewFileResolver loads the identity map at path. Call Watch to enable live
// reloading.
func NewFileResolver(path string, logger *slog.Logger) (*FileResolver, error) {
	if logger == nil {
		logger = slog.Default().With("component", "authority.resolver")
	}

	r := &FileResolver{
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the authority level of the given principal.
func (r *FileResolver) Resolve(principal string) (authority.AuthorityLevel, error) {
	r.mu.RLock()
	level, ok := r.levels[principal]
	defaultToUser := r.config.DefaultToUser
	r.mu.RUnlock()

	if ok {
		return level, nil
	}
	if defaultToUser {
		return authority.AuthorityUser, nil
	}
	return 0, &authority.UnknownPrincipalError{Principal: principal}
}

// Reload re-reads the identity map from disk. On parse failure the previous
// mapping is retained and the error is returned.
func (r *FileResolver) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read identity map %q: %w", r.path, err)
	}

	var file identityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse identity map %q: %w", r.path, err)
	}

	levels := make(map[string]authority.AuthorityLevel, len(file.Principals))
	for principal, name := range file.Principals {
		level, err := authority.ParseAuthorityLevel(name)
		if err != nil {
			return fmt.Errorf("identity map %q: principal %q: %w", r.path, principal, err)
		}
		levels[principal] = level
	}

	r.mu.Lock()
	r.levels = levels
	r.config = Config{DefaultToUser: file.DefaultToUser}
	r.mu.Unlock()

	r.logger.Info("identity map loaded",
		"path", r.path,
		"principals", len(levels),
		"default_to_user", file.DefaultToUser,
	)
	return nil
}

// Watch blocks watching the identity map file for changes, reloading on each
// change, until the context is cancelled or Stop is called.
func (r *FileResolver) Watch(ctx context.Context, debounce time.Duration) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("resolver watcher already running")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	r.watcher = watcher
	r.running = true
	r.mu.Unlock()

	defer func() {
		watcher.Close()
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		close(r.doneCh)
	}()

	if err := watcher.Add(r.path); err != nil {
		return fmt.Errorf("failed to watch identity map %q: %w", r.path, err)
	}

	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	var timer *time.Timer
	var timerMu sync.Mutex

	r.logger.Info("identity map watcher started", "path", r.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-r.stopCh:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if err := r.Reload(); err != nil {
					r.logger.Error("identity map reload failed", "error", err)
				}
			})
			timerMu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			r.logger.Error("identity map watcher error", "error", err)
		}
	}
}

// Stop stops a running watcher and waits for it to exit.
func (r *FileResolver) Stop() {
	r.mu.RLock()
	running := r.running
	r.mu.RUnlock()
	if !running {
		return
	}

	close(r.stopCh)
	<-r.doneCh
}
