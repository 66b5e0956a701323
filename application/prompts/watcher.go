package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// overrideFile is the YAML layout of PROMPTS_FILE
type overrideFile struct {
	Templates []Definition `yaml:"templates"`
}

// LoadFile reads template overrides from a YAML file
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}
	return f.Templates, nil
}

// Watcher reloads a catalog whenever its override file changes
type Watcher struct {
	path     string
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher applies the file once and starts watching it.
// A broken file at startup is an error; later broken edits are logged and ignored.
func NewWatcher(path string, catalog *Catalog, logger *zap.Logger) (*Watcher, error) {
	defs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := catalog.Replace(defs); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// watch the directory so editors that save by rename are noticed
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch prompts directory: %w", err)
	}

	w := &Watcher{
		path:     path,
		catalog:  catalog,
		watcher:  fw,
		logger:   logger.Named("prompts.watcher"),
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}
	go w.watchLoop()
	w.logger.Info("Prompt watcher started", zap.String("path", path), zap.Int("overrides", len(defs)))
	return w, nil
}

// Close stops watching
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watchLoop() {
	var timer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	defs, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload prompts, keeping current", zap.Error(err))
		return
	}
	if err := w.catalog.Replace(defs); err != nil {
		w.logger.Error("Invalid prompts file, keeping current", zap.Error(err))
		return
	}
	w.logger.Info("Prompts reloaded", zap.Int("overrides", len(defs)))
}
