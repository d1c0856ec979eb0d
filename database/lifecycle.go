/*
 * Copyright 2025 The burrow Authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// Lifecycle owns the process-wide query client slot. In development mode the
// first GetClient call constructs the client and every later call returns the
// identical handle, so interactive reload workflows do not accumulate one
// connection pool per reload. In production mode every call constructs a
// fresh client and nothing is cached.
//
// The manager is explicit and injectable: construct one with NewLifecycle and
// pass it around, or use the package-level GetClient backed by a default
// instance.
type Lifecycle struct {
	mu     sync.Mutex
	cached *bun.DB
	opts   *PoolOptions

	loggerMu sync.RWMutex
	logger   Logger
}

// NewLifecycle returns a lifecycle manager with the given query-pool options.
// If opts is nil, DefaultPoolOptions is used.
func NewLifecycle(opts *PoolOptions) *Lifecycle {
	if opts == nil {
		opts = DefaultPoolOptions()
	}
	return &Lifecycle{opts: opts}
}

// SetLogger sets the logger used for connect and slow-query reporting.
func (l *Lifecycle) SetLogger(logger Logger) {
	l.loggerMu.Lock()
	defer l.loggerMu.Unlock()
	l.logger = logger
}

func (l *Lifecycle) log() Logger {
	l.loggerMu.RLock()
	logger := l.logger
	l.loggerMu.RUnlock()
	if logger != nil {
		return logger
	}
	return GetLogger()
}

// GetClient returns the query client for the validated settings. Development
// mode performs a check-then-set on the cached slot under the mutex, so
// re-entrant initialization cannot construct a second pool.
func (l *Lifecycle) GetClient(ctx context.Context, settings *Settings) (*bun.DB, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be empty")
	}

	if settings.Mode() != Development {
		return l.buildClient(ctx, settings, l.opts)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil {
		return l.cached, nil
	}
	db, err := l.buildClient(ctx, settings, l.opts)
	if err != nil {
		return nil, err
	}
	l.cached = db
	return db, nil
}

// buildClient opens a pool and verifies connectivity within the connect
// timeout. No queries are issued beyond the ping.
func (l *Lifecycle) buildClient(ctx context.Context, settings *Settings, opts *PoolOptions) (*bun.DB, error) {
	db, err := openClient(settings, opts, l.log())
	if err != nil {
		return nil, err
	}

	pingCtx := ctx
	if opts != nil && opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Host: settings.Host(), cause: err}
	}

	l.log().Info("Database client connected:", "scheme", settings.Scheme(), "host", settings.Host(), "mode", settings.Mode())
	return db, nil
}

// Close closes the cached development client, if any, and clears the slot.
// Production clients are owned by their callers.
func (l *Lifecycle) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached == nil {
		return nil
	}
	err := l.cached.Close()
	l.cached = nil
	if err != nil {
		l.log().Error("Failed to close database client", "error", err)
		return err
	}
	l.log().Info("Database client closed")
	return nil
}

// NewMigrationClient constructs a fresh single-connection client for the
// migration runner. It never consults or mutates the lifecycle cache:
// migrations must not share a pool with query traffic, and a single
// connection prevents concurrent migration statements from interleaving.
func NewMigrationClient(ctx context.Context, settings *Settings) (*bun.DB, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be empty")
	}

	opts := MigrationPoolOptions()
	db, err := openClient(settings, opts, GetLogger())
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Host: settings.Host(), cause: err}
	}
	return db, nil
}

var defaultLifecycle = NewLifecycle(nil)

// DefaultLifecycle returns the package-level lifecycle manager.
func DefaultLifecycle() *Lifecycle { return defaultLifecycle }

// GetClient returns the query client from the default lifecycle manager.
func GetClient(ctx context.Context, settings *Settings) (*bun.DB, error) {
	return defaultLifecycle.GetClient(ctx, settings)
}

// CloseClient closes the default lifecycle manager's cached client.
func CloseClient() error {
	return defaultLifecycle.Close()
}
