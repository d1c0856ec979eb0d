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
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// openClient opens a Bun client for the settings URL without pinging it.
// The URL scheme selects the driver and dialect.
func openClient(settings *Settings, opts *PoolOptions, logger Logger) (*bun.DB, error) {
	if opts == nil {
		opts = DefaultPoolOptions()
	}

	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	switch settings.Scheme() {
	case "postgres", "postgresql":
		sqlDB, db, err = openPostgres(settings)
	case "mysql":
		sqlDB, db, err = openMySQL(settings)
	case "sqlite", "sqlite3":
		sqlDB, db, err = openSQLite(settings)
	default:
		return nil, fmt.Errorf("unsupported database scheme: %s, supported schemes: [postgres mysql sqlite]", settings.Scheme())
	}
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if opts.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if opts.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{
			slowTime: opts.SlowQueryTime,
			logger:   logger,
		})
	}

	return db, nil
}

func openPostgres(settings *Settings) (*sql.DB, *bun.DB, error) {
	// lib/pq accepts postgres:// URLs directly.
	sqlDB, err := sql.Open("postgres", settings.URL())
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func openMySQL(settings *Settings) (*sql.DB, *bun.DB, error) {
	dsn, err := mysqlDSN(settings.url)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func openSQLite(settings *Settings) (*sql.DB, *bun.DB, error) {
	sqlDB, err := sql.Open(sqliteshim.ShimName, sqliteDSN(settings.url))
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

// mysqlDSN converts a mysql:// URL into the go-sql-driver DSN form.
func mysqlDSN(u *url.URL) (string, error) {
	if u.Host == "" {
		return "", fmt.Errorf("mysql URL must include a host")
	}
	dbname := strings.TrimPrefix(u.Path, "/")

	auth := ""
	if u.User != nil {
		auth = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			auth += ":" + pass
		}
		auth += "@"
	}

	params := "charset=utf8mb4&parseTime=True&loc=Local"
	if u.RawQuery != "" {
		params += "&" + u.RawQuery
	}

	return fmt.Sprintf("%stcp(%s)/%s?%s", auth, u.Host, dbname, params), nil
}

// sqliteDSN extracts the file path from a sqlite:// URL. Both
// sqlite://app.db and sqlite:///abs/path/app.db forms are accepted.
func sqliteDSN(u *url.URL) string {
	dsn := u.Host + u.Path
	if u.Opaque != "" {
		dsn = u.Opaque
	}
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return dsn
}
