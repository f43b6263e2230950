package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a reload rejected by validation or by an OnChange callback.
var ErrInvalid = errors.New("invalid catalog")

// Loader reads a YAML catalog file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	reloadMu sync.Mutex
	current  *CatalogConfig
	onChange []func(*CatalogConfig) error
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *CatalogConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked on every reload, before the new
// config is committed. Returning an error rejects the reload.
func (l *Loader) OnChange(fn func(*CatalogConfig) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						// Keep serving the previous catalog.
						slog.Warn("config reload failed", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "path", l.path, "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file.
//
// The new config is committed only when it passes Validate and every
// OnChange callback accepts it; otherwise the previous config stays current
// and the error wraps ErrInvalid. Reloads are serialised.
func (l *Loader) Reload() (*CatalogConfig, error) {
	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	l.mu.RLock()
	callbacks := make([]func(*CatalogConfig) error, len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		if err := fn(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) load() (*CatalogConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	return Parse(data, l.path)
}

// Parse decodes YAML catalog bytes over the engine defaults and normalises
// severities. name is only used in error messages.
func Parse(data []byte, name string) (*CatalogConfig, error) {
	cfg := CatalogConfig{Engine: DefaultEngineConf()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	for i := range cfg.Queries {
		cfg.Queries[i].Severity = strings.ToUpper(strings.TrimSpace(cfg.Queries[i].Severity))
	}
	return &cfg, nil
}
