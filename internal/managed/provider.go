package managed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	// ConfigKey is the platform key the management layer writes under.
	ConfigKey = "com.apple.configuration.managed"
	// BaseEnvironmentURLKey holds the administrator supplied base URL.
	BaseEnvironmentURLKey = "baseEnvironmentUrl"

	keyDelimiter = "::"
)

// Provider reads managed configuration from a file such as
//
//	com.apple.configuration.managed:
//	  baseEnvironmentUrl: https://vault.example.com
//
// Keys contain dots, so lookups use "::" as the viper key delimiter.
type Provider struct {
	mutex  sync.RWMutex
	v      *viper.Viper
	path   string
	logger *slog.Logger
}

// NewProvider returns a provider with no managed values.
func NewProvider(logger *slog.Logger) *Provider {
	return &Provider{v: newViper(), logger: logger}
}

// Load reads path. A missing file is not an error: the provider starts
// empty and picks the file up if Watch is running when it appears.
func Load(path string, logger *slog.Logger) (*Provider, error) {
	p := &Provider{v: newViper(), path: path, logger: logger}

	if path == "" {
		return p, nil
	}

	if err := p.reload(); err != nil {
		return nil, err
	}

	return p, nil
}

// ManagedBaseURL returns the managed base URL if one is configured.
func (p *Provider) ManagedBaseURL() (string, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	raw := strings.TrimSpace(p.v.GetString(ConfigKey + keyDelimiter + BaseEnvironmentURLKey))
	return raw, raw != ""
}

// Watch reloads the file whenever it changes and calls onChange after each
// reload. It blocks until ctx is cancelled.
func (p *Provider) Watch(ctx context.Context, onChange func()) error {
	if p.path == "" {
		return errors.New("managed config path not set")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and device-management agents usually
	// replace the file instead of writing it in place.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	target := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := p.reload(); err != nil {
				p.logger.Warn("Failed to reload managed config",
					slog.String("file", p.path),
					slog.Any("err", err))
				continue
			}

			p.logger.Info("Managed config changed", slog.String("file", p.path))
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("Managed config watcher error", slog.Any("err", err))
		}
	}
}

func (p *Provider) reload() error {
	v := newViper()

	if _, err := os.Stat(p.path); errors.Is(err, fs.ErrNotExist) {
		p.logger.Debug("Managed config file not found", slog.String("file", p.path))
		p.swap(v)
		return nil
	}

	v.SetConfigFile(p.path)
	if filepath.Ext(p.path) == "" {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read managed config: %w", err)
	}

	p.swap(v)
	return nil
}

func (p *Provider) swap(v *viper.Viper) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.v = v
}

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
}
