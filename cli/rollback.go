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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/burrowdb/burrow/database"
)

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Roll back a migration version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := database.LoadSettings(rootOpts.environment())
			if err != nil {
				return err
			}

			db, err := database.NewMigrationClient(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			migrator := database.NewMigrator(db, database.GetLogger())
			return migrator.Rollback(ctx, args[0])
		},
	}
}
