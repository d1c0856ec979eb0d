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

import "time"

// PoolOptions tunes the connection pool behind a client handle.
type PoolOptions struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

// DefaultPoolOptions returns the query-client pool configuration. The pool
// stays small: request handlers share it, and serverless database plans
// meter connection slots.
func DefaultPoolOptions() *PoolOptions {
	return &PoolOptions{
		MaxOpenConns:    3,
		MaxIdleConns:    3,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		SlowQueryTime:   time.Second * 2,
	}
}

// MigrationPoolOptions returns the migration-client pool configuration.
// MaxOpenConns is fixed at 1 so migration statements cannot interleave.
func MigrationPoolOptions() *PoolOptions {
	return &PoolOptions{
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		ConnectTimeout: time.Second * 10,
	}
}
