package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/reefrank/pkg/scenario"
)

// reloadDelay debounces bursts of write events from editors.
const reloadDelay = 200 * time.Millisecond

// WatchScenario reloads the default scenario whenever the TOML file at path
// changes, until ctx is cancelled. An invalid file is logged and the
// previous scenario stays active.
func (s *Server) WatchScenario(ctx context.Context, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file via rename,
	// which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	s.cfg.Logger.Info("watching scenario", "path", path)

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			sc, err := scenario.Load(path)
			if err != nil {
				s.cfg.Logger.Error("scenario reload failed, keeping previous", "path", path, "error", err)
				continue
			}
			s.SetScenario(sc)
			s.cfg.Logger.Info("scenario reloaded", "name", sc.Name, "algorithm", sc.Algorithm)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.cfg.Logger.Error("file watcher error", "error", err)
		}
	}
}
