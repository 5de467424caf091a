// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/stop"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// settingsFile is a YAML file of setting overrides, applied at startup and
// again whenever the file changes or the process receives SIGHUP.
type settingsFile struct {
	path string
	sv   *settings.Values
}

func (f *settingsFile) load(ctx context.Context) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return errors.Wrapf(err, "reading settings file")
	}
	return errors.Wrapf(settings.ApplyYAML(ctx, f.sv, data), "applying %s", f.path)
}

func (f *settingsFile) reload(ctx context.Context) {
	if err := f.load(ctx); err != nil {
		log.Warningf(ctx, "keeping previous settings: %v", err)
		return
	}
	log.Infof(ctx, "reloaded settings from %s", f.path)
}

// watch reloads the file until the stopper quiesces. The directory is
// watched rather than the file so that editors replacing the file are
// noticed.
func (f *settingsFile) watch(
	ctx context.Context, stopper *stop.Stopper, sighup <-chan os.Signal,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watching settings file")
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return errors.Wrapf(err, "watching %s", f.path)
	}
	path := filepath.Clean(f.path)
	return stopper.RunAsyncTask(ctx, "settings-watcher", func(ctx context.Context) {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				f.reload(ctx)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warningf(ctx, "settings watcher: %v", err)
			case <-sighup:
				f.reload(ctx)
			case <-stopper.ShouldQuiesce():
				return
			case <-ctx.Done():
				return
			}
		}
	})
}
