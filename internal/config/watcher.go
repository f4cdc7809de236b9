package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// watchDebounce coalesces the burst of fsnotify events editors emit for a
// single save into one reload.
const watchDebounce = 250 * time.Millisecond

// WatchConfig reloads the configuration file whenever it changes on disk and
// invokes onChange with the freshly parsed result. It returns a stop function
// that releases the watcher.
//
// The parent directory is watched rather than the file itself so atomic
// rename-based saves keep being observed.
func WatchConfig(configFile string, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(configFile)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err = watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	var mu sync.Mutex
	var pending *time.Timer

	reload := func() {
		cfg, errLoad := LoadConfig(absPath)
		if errLoad != nil {
			log.Warnf("config: reload skipped: %v", errLoad)
			return
		}
		onChange(cfg)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(watchDebounce, reload)
				mu.Unlock()
			case errWatch, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("config: watcher error: %v", errWatch)
			}
		}
	}()

	return func() {
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
		_ = watcher.Close()
	}, nil
}
