package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/bootstrap"
	"github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long:  "Apply, roll back or inspect the catalog and patient history schema migrations.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *postgres.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					PrintSuccess(cmd, "migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down <steps>",
			Short: "Roll back the given number of migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps, err := parsePositive(args[0], "steps")
				if err != nil {
					return err
				}
				return withMigrator(cmd, func(m *postgres.Migrator) error {
					if err := m.Down(steps); err != nil {
						return err
					}
					PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *postgres.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					return PrintResult(cmd, &migrationVersion{Version: version, Dirty: dirty})
				})
			},
		},
		newMigrateForceCmd(),
	)
	return cmd
}

// newMigrateForceCmd takes the version as a flag so that -1, the nil
// version, is not read as a shorthand flag.
func newMigrateForceCmd() *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:     "force --to <version>",
		Short:   "Set the schema version without running migrations",
		Long:    "Mark the schema as being at the given version and clear the dirty flag.\nUse after fixing a failed migration by hand; -1 resets to no version.",
		Example: "  symsense migrate force --to 2\n  symsense migrate force --to -1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("to") {
				return errors.InvalidParam("--to is required")
			}
			if version < -1 {
				return errors.InvalidParam("version must be an integer >= -1").WithDetail(strconv.Itoa(version))
			}
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", version))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&version, "to", 0, "target schema version, -1 for none")
	return cmd
}

// withMigrator connects to PostgreSQL and runs fn with a migrator that is
// closed afterwards.
func withMigrator(cmd *cobra.Command, fn func(m *postgres.Migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if !cliCtx.Config.Database.Postgres.Enabled {
		return errors.New(errors.ErrCodeConfigInvalid, "database.postgres.enabled is false")
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	conn, err := bootstrap.ConnectPostgres(ctx, cliCtx.Config.Database.Postgres, cliCtx.Logger)
	if err != nil {
		return err
	}
	m, err := postgres.NewMigrator(conn, cliCtx.Logger)
	if err != nil {
		conn.Close()
		return err
	}
	defer m.Close()
	return fn(m)
}

type migrationVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (v *migrationVersion) TableHeaders() []string { return []string{"Version", "Dirty"} }

func (v *migrationVersion) TableRows() [][]string {
	return [][]string{{strconv.FormatUint(uint64(v.Version), 10), strconv.FormatBool(v.Dirty)}}
}

func parsePositive(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.InvalidParam(name + " must be a positive integer").WithDetail(s)
	}
	return n, nil
}
