//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/log"
)

// Callback receives every successful reload, or the error that prevented it.
type Callback func(*Config, error)

// Watcher reloads config files when they are written.
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    []LoadOption
	done    chan struct{}
	once    sync.Once

	mu      sync.RWMutex
	cbs     map[string][]Callback
	modTime map[string]int64
}

// NewWatcher creates a Watcher. opts are applied to every reload.
func NewWatcher(opts ...LoadOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.WrapFrameError(err, errs.RetConfig, "config: new watcher")
	}
	w := &Watcher{
		watcher: fw,
		opts:    opts,
		done:    make(chan struct{}),
		cbs:     make(map[string][]Callback),
		modTime: make(map[string]int64),
	}
	go w.run()
	return w, nil
}

// Watch loads path once and then calls cb after each write to the file.
func (w *Watcher) Watch(path string, cb Callback) (*Config, error) {
	cfg, err := Load(path, w.opts...)
	if err != nil {
		return nil, err
	}
	if err := w.watcher.Add(filepath.Dir(path)); err != nil {
		return nil, errs.WrapFrameError(err, errs.RetConfig, "config: watch "+path)
	}
	key := filepath.Clean(path)
	w.mu.Lock()
	w.cbs[key] = append(w.cbs[key], cb)
	if fi, err := os.Stat(path); err == nil {
		w.modTime[key] = fi.ModTime().UnixNano()
	}
	w.mu.Unlock()
	return cfg, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if cbs, ok := w.isModified(e); ok {
				w.trigger(e.Name, cbs)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("config: watcher error: %v", err)
		}
	}
}

func (w *Watcher) isModified(e fsnotify.Event) ([]Callback, bool) {
	if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return nil, false
	}
	key := filepath.Clean(e.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	cbs, ok := w.cbs[key]
	if !ok {
		return nil, false
	}
	fi, err := os.Stat(e.Name)
	if err != nil {
		return nil, false
	}
	if t := fi.ModTime().UnixNano(); t > w.modTime[key] {
		w.modTime[key] = t
		return cbs, true
	}
	return nil, false
}

func (w *Watcher) trigger(path string, cbs []Callback) {
	cfg, err := Load(path, w.opts...)
	if err != nil {
		log.Warnf("config: reload %s: %v", path, err)
	}
	for _, cb := range cbs {
		cb(cfg, err)
	}
}

// Watch loads path and calls cb after each write to it until the returned
// Watcher is closed.
func Watch(path string, cb Callback, opts ...LoadOption) (*Watcher, *Config, error) {
	w, err := NewWatcher(opts...)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := w.Watch(path, cb)
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}
	return w, cfg, nil
}
