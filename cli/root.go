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

// Package cli implements the burrow command line: migrate, status, check,
// and rollback against the database configured through the environment.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/burrowdb/burrow/database"
)

// RootOptions holds global flags shared by all subcommands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool

	// Env is the environment mapping passed to the settings loader.
	// If nil, a snapshot of the process environment is used. Tests inject
	// a literal map here.
	Env map[string]string
}

func (o *RootOptions) environment() map[string]string {
	if o.Env != nil {
		return o.Env
	}
	return database.EnvSnapshot()
}

// NewRootCommand creates the root command for the burrow CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "burrow",
		Short:         "burrow - database wiring for Bun",
		Long:          "Validates DATABASE_URL and BURROW_ENV, manages the query client lifecycle, and applies SQL migrations.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				database.GetLogger().SetLevel(database.LogLevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to burrow.yaml (default ./burrow.yaml)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRollbackCommand(opts))

	return cmd
}
