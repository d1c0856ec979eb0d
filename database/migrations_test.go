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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func writeMigration(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func migrationFixture(t *testing.T) (*bun.DB, string) {
	t.Helper()
	settings := sqliteSettings(t, Development)
	db, err := NewMigrationClient(context.Background(), settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, t.TempDir()
}

func TestMigratorAppliesFilesInOrder(t *testing.T) {
	ctx := context.Background()
	db, dir := migrationFixture(t)

	writeMigration(t, dir, "0002_add_email.sql",
		"ALTER TABLE users ADD COLUMN email TEXT;")
	writeMigration(t, dir, "0001_create_users.sql",
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")
	writeMigration(t, dir, "notes.txt", "not a migration")

	migrator := NewMigrator(db, nil)
	require.NoError(t, migrator.Run(ctx, dir))

	applied, err := migrator.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "0001", applied[0].Version)
	assert.Equal(t, "create_users", applied[0].Name)
	assert.Equal(t, "0002", applied[1].Version)

	// The ALTER only succeeds if 0001 ran first.
	var count int
	err = db.NewSelect().Table("users").ColumnExpr("count(*)").Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMigratorIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, dir := migrationFixture(t)

	writeMigration(t, dir, "0001_create_tasks.sql",
		"CREATE TABLE tasks (id INTEGER PRIMARY KEY, title TEXT);")

	migrator := NewMigrator(db, nil)
	require.NoError(t, migrator.Run(ctx, dir))
	// The second run sees the tracking record and applies nothing; a
	// re-applied CREATE TABLE would fail.
	require.NoError(t, migrator.Run(ctx, dir))

	applied, err := migrator.Applied(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 1)
}

func TestMigratorFailureRollsBackAndReportsFile(t *testing.T) {
	ctx := context.Background()
	db, dir := migrationFixture(t)

	writeMigration(t, dir, "0001_broken.sql",
		"CREATE TABLE broken (;")

	migrator := NewMigrator(db, nil)
	err := migrator.Run(ctx, dir)
	require.Error(t, err)

	var merr *MigrationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "0001", merr.Version)
	assert.Contains(t, merr.File, "0001_broken.sql")

	// The failed version must not be recorded, so a fixed file re-applies.
	applied, appliedErr := migrator.Applied(ctx)
	require.NoError(t, appliedErr)
	assert.Empty(t, applied)

	require.NoError(t, os.Remove(filepath.Join(dir, "0001_broken.sql")))
	writeMigration(t, dir, "0001_fixed.sql",
		"CREATE TABLE fixed (id INTEGER PRIMARY KEY);")
	require.NoError(t, migrator.Run(ctx, dir))
}

func TestMigratorFileIsTransactional(t *testing.T) {
	ctx := context.Background()
	db, dir := migrationFixture(t)

	// The second statement fails; the first must not survive.
	writeMigration(t, dir, "0001_partial.sql",
		"CREATE TABLE survivors (id INTEGER PRIMARY KEY);\nCREATE TABLE broken (;")

	migrator := NewMigrator(db, nil)
	require.Error(t, migrator.Run(ctx, dir))

	exists, err := db.NewSelect().
		Table("sqlite_master").
		Where("type = 'table' AND name = 'survivors'").
		Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "partial migration must roll back")
}

func TestMigratorEmptyDirSucceeds(t *testing.T) {
	ctx := context.Background()
	db, dir := migrationFixture(t)

	migrator := NewMigrator(db, nil)
	require.NoError(t, migrator.Run(ctx, dir))

	applied, err := migrator.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestMigratorMissingDirFails(t *testing.T) {
	ctx := context.Background()
	db, _ := migrationFixture(t)

	migrator := NewMigrator(db, nil)
	err := migrator.Run(ctx, filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan migrations directory")
}

func TestMigratorRollbackNotImplemented(t *testing.T) {
	db, _ := migrationFixture(t)
	migrator := NewMigrator(db, nil)
	err := migrator.Rollback(context.Background(), "0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not implemented")
}

func TestScanMigrationDirOrdering(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "10_ten.sql", "SELECT 1;")
	writeMigration(t, dir, "2_two.sql", "SELECT 1;")
	writeMigration(t, dir, "0001_one.sql", "SELECT 1;")
	writeMigration(t, dir, "README.md", "docs")

	files, err := ScanMigrationDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "0001", files[0].Version, "ordering is numeric, not lexicographic")
	assert.Equal(t, "2", files[1].Version)
	assert.Equal(t, "10", files[2].Version)
}

func TestScanMigrationDirRejectsOverflowingVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0001_one.sql", "SELECT 1;")
	writeMigration(t, dir, "99999999999999999999_huge.sql", "SELECT 1;")

	_, err := ScanMigrationDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration version")
	assert.Contains(t, err.Error(), "99999999999999999999")
}

func TestSplitStatements(t *testing.T) {
	content := `-- create the users table
CREATE TABLE users (
  id INTEGER PRIMARY KEY,
  name TEXT
);

-- seed
INSERT INTO users (name) VALUES ('a');
INSERT INTO users (name) VALUES ('b')`

	statements := splitStatements(content)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "CREATE TABLE users")
	assert.Contains(t, statements[2], "VALUES ('b')")
}

func TestMigratorCreatesBaselineTables(t *testing.T) {
	type widget struct {
		bun.BaseModel `bun:"table:widgets"`
		ID            int64  `bun:"id,pk,autoincrement"`
		Label         string `bun:"label,notnull"`
	}
	RegisterModel((*widget)(nil), 1)
	t.Cleanup(func() {
		defaultSchemaRegistry.mu.Lock()
		defaultSchemaRegistry.models = nil
		defaultSchemaRegistry.mu.Unlock()
	})

	ctx := context.Background()
	db, dir := migrationFixture(t)

	migrator := NewMigrator(db, nil)
	require.NoError(t, migrator.Run(ctx, dir))

	exists, err := db.NewSelect().
		Table("sqlite_master").
		Where("type = 'table' AND name = 'widgets'").
		Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}
