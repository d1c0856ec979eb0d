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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProjectConfigFile is the conventional config file name looked up in
// the working directory.
const DefaultProjectConfigFile = "burrow.yaml"

// ProjectConfig is the optional per-project YAML configuration. It only
// carries tuning and paths; the connection URL and execution mode always
// come from the environment.
type ProjectConfig struct {
	Migrations MigrationsConfig `yaml:"migrations"`
	Pool       PoolConfig       `yaml:"pool"`
}

// MigrationsConfig locates the SQL migration files.
type MigrationsConfig struct {
	Dir string `yaml:"dir"`
}

// PoolConfig overrides query-pool tuning. Zero values keep the defaults.
type PoolConfig struct {
	MaxOpenConns          int  `yaml:"max_open_conns"`
	MaxIdleConns          int  `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin    int  `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMin    int  `yaml:"conn_max_idle_time_minutes"`
	ConnectTimeoutSeconds int  `yaml:"connect_timeout_seconds"`
	EnableQueryLog        bool `yaml:"enable_query_log"`
	SlowQueryMillis       int  `yaml:"slow_query_millis"`
}

// DefaultProjectConfig returns the configuration used when no file exists.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Migrations: MigrationsConfig{Dir: "migrations"},
	}
}

// LoadProjectConfig reads and parses the YAML config at path. A missing file
// is not an error: the defaults are returned so projects without a config
// file work out of the box.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	if path == "" {
		path = DefaultProjectConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProjectConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultProjectConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Migrations.Dir == "" {
		config.Migrations.Dir = "migrations"
	}
	return config, nil
}

// PoolOptions converts the file overrides into pool options, layered over
// DefaultPoolOptions.
func (c *ProjectConfig) PoolOptions() *PoolOptions {
	opts := DefaultPoolOptions()
	if c == nil {
		return opts
	}
	if c.Pool.MaxOpenConns > 0 {
		opts.MaxOpenConns = c.Pool.MaxOpenConns
	}
	if c.Pool.MaxIdleConns > 0 {
		opts.MaxIdleConns = c.Pool.MaxIdleConns
	}
	if c.Pool.ConnMaxLifetimeMin > 0 {
		opts.ConnMaxLifetime = time.Duration(c.Pool.ConnMaxLifetimeMin) * time.Minute
	}
	if c.Pool.ConnMaxIdleTimeMin > 0 {
		opts.ConnMaxIdleTime = time.Duration(c.Pool.ConnMaxIdleTimeMin) * time.Minute
	}
	if c.Pool.ConnectTimeoutSeconds > 0 {
		opts.ConnectTimeout = time.Duration(c.Pool.ConnectTimeoutSeconds) * time.Second
	}
	if c.Pool.EnableQueryLog {
		opts.EnableQueryLog = true
	}
	if c.Pool.SlowQueryMillis > 0 {
		opts.SlowQueryTime = time.Duration(c.Pool.SlowQueryMillis) * time.Millisecond
	}
	return opts
}
