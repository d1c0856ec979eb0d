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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// AppliedMigration is the tracking record stored for every applied file.
type AppliedMigration struct {
	bun.BaseModel `bun:"table:burrow_migrations,alias:bm"`

	Version   string    `bun:"version,pk"`
	Name      string    `bun:"name"`
	AppliedAt time.Time `bun:"applied_at"`
}

// MigrationFile describes a pending SQL migration file on disk. Version is
// the raw numeric prefix as written in the filename; Order is its numeric
// value used for sorting.
type MigrationFile struct {
	Version string
	Name    string
	Path    string
	Order   int
}

// Migrator applies ordered SQL migration files against a single-connection
// migration client. It never retries: a failed run requires operator
// intervention and a fresh invocation.
type Migrator struct {
	db     *bun.DB
	logger Logger
}

// NewMigrator constructs a migrator. The db handle should come from
// NewMigrationClient so migration statements cannot interleave.
func NewMigrator(db *bun.DB, logger Logger) *Migrator {
	if logger == nil {
		logger = GetLogger()
	}
	return &Migrator{db: db, logger: logger}
}

// Run creates the tracking table if needed, creates tables for registered
// schema models, then applies every pending file from dir in ascending
// version order, one transaction per file.
func (m *Migrator) Run(ctx context.Context, dir string) error {
	if m.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := m.createTrackingTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	if err := m.createBaselineTables(ctx); err != nil {
		return fmt.Errorf("failed to create baseline tables: %w", err)
	}

	files, err := ScanMigrationDir(dir)
	if err != nil {
		return fmt.Errorf("failed to scan migrations directory: %w", err)
	}

	applied := 0
	for _, file := range files {
		ok, err := m.applyFile(ctx, file)
		if err != nil {
			return err
		}
		if ok {
			applied++
		}
	}

	m.logger.Info("Database migrations completed!", "dir", dir, "applied", applied, "total", len(files))
	return nil
}

func (m *Migrator) createTrackingTable(ctx context.Context) error {
	_, err := m.db.NewCreateTable().
		Model((*AppliedMigration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// createBaselineTables creates tables for registered schema models in
// priority order. Files in the migrations directory evolve this baseline.
func (m *Migrator) createBaselineTables(ctx context.Context) error {
	for _, model := range RegisteredModelInstances() {
		_, err := m.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

// applyFile applies a single migration file if it has not been applied yet.
// It reports whether the file was applied during this call.
func (m *Migrator) applyFile(ctx context.Context, file MigrationFile) (bool, error) {
	exists, err := m.db.NewSelect().
		Model((*AppliedMigration)(nil)).
		Where("version = ?", file.Version).
		Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return false, &MigrationError{Version: file.Version, File: file.Path, cause: err}
	}
	statements := splitStatements(string(content))

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &MigrationError{Version: file.Version, File: file.Path, cause: err}
	}
	var committed bool
	defer func(tx bun.Tx) {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				m.logger.Error("Failed to rollback transaction", "error", rollbackErr)
			}
		}
	}(tx)

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if isKnown, kind := ClassifySQLError(err); isKnown {
				m.logger.Error("Migration statement failed", "version", file.Version, "kind", kind, "error", err)
			}
			return false, &MigrationError{Version: file.Version, File: file.Path, cause: err}
		}
	}

	record := &AppliedMigration{
		Version:   file.Version,
		Name:      file.Name,
		AppliedAt: time.Now(),
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return false, &MigrationError{Version: file.Version, File: file.Path, cause: err}
	}

	if err := tx.Commit(); err != nil {
		return false, &MigrationError{Version: file.Version, File: file.Path, cause: err}
	}
	committed = true

	m.logger.Info("Migration applied successfully", "version", file.Version, "name", file.Name)
	return true, nil
}

// Applied returns tracking records ordered by version. A database that has
// never been migrated reports no records rather than a missing-table error.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	var records []AppliedMigration
	err := m.db.NewSelect().
		Model(&records).
		Order("version ASC").
		Scan(ctx)
	if err != nil {
		if known, kind := ClassifySQLError(err); known && kind == NoTableErr {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// Rollback is currently not implemented. Write a forward migration instead.
func (m *Migrator) Rollback(ctx context.Context, version string) error {
	return fmt.Errorf("migration rollback is not implemented yet")
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)[_-](.+)\.sql$`)

// ScanMigrationDir lists SQL migration files named NNNN_description.sql in
// ascending version order. Files without a numeric prefix are ignored; a
// version prefix that does not fit in an int is an error.
func ScanMigrationDir(dir string) ([]MigrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []MigrationFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(strings.ToLower(e.Name()))
		if len(matches) != 3 {
			continue
		}
		order, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %q in file %s: %w", matches[1], e.Name(), err)
		}
		files = append(files, MigrationFile{
			Version: matches[1],
			Name:    matches[2],
			Path:    filepath.Join(dir, e.Name()),
			Order:   order,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// splitStatements breaks SQL file content into individual statements.
// Comment-only and blank lines are dropped; statements end at a line
// terminated by a semicolon.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString(" ")

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if current.Len() > 0 {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}
