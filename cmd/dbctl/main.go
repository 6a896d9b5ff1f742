package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"

	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/db"
	dbmigrate "github.com/avezina/shiplift/internal/db/migrate"
)

var rootCmd = &cobra.Command{
	Use:   "dbctl",
	Short: "Database schema management CLI",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration bookkeeping tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := newManager(database)
			if err != nil {
				return err
			}
			return manager.Init(cmd.Context())
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or rollback schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := newManager(database)
			if err != nil {
				return err
			}
			applied, err := manager.MigrateUp(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		to, _ := cmd.Flags().GetString("to")

		return runWithDatabase(func(database *db.Database) error {
			manager, err := newManager(database)
			if err != nil {
				return err
			}
			if to != "" {
				return manager.MigrateDownTo(cmd.Context(), to)
			}
			return manager.MigrateDownSteps(cmd.Context(), steps)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:           "status",
	Short:         "Show applied and pending migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			manager, err := newManager(database)
			if err != nil {
				return err
			}
			status, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range status {
				state := "pending"
				if m.IsApplied() {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s_%s\t%s\n", m.Name, m.Comment, state)
			}
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:           "verify",
	Short:         "Ensure database is on the latest schema version",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDatabase(func(database *db.Database) error {
			return dbmigrate.EnsureCurrent(cmd.Context(), database.Bun(), migrationsDir(), false)
		})
	},
}

var recreateCmd = &cobra.Command{
	Use:   "recreate <scope>",
	Short: "Drop and recreate tables for a scope (destructive)",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("scope must be exactly one of: all, ledger, migrations")
		}
		switch args[0] {
		case "all", "ledger", "migrations":
			return nil
		default:
			return errors.New("scope must be one of: all, ledger, migrations")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.ToLower(os.Getenv("DB_ALLOW_DESTRUCTIVE")) != "yes" {
			return errors.New("DB_ALLOW_DESTRUCTIVE=yes must be set for recreate")
		}
		scope := args[0]
		return runWithDatabase(func(database *db.Database) error {
			return recreateScope(cmd.Context(), database.Bun(), scope)
		})
	},
}

func main() {
	config.Init(rootCmd)

	rootCmd.PersistentFlags().String("dsn", "", "Database DSN (overrides the db_* settings)")
	rootCmd.PersistentFlags().String("migrations", "migrations", "Migrations directory")
	_ = viper.BindPFlag(config.KeyDBDSN, rootCmd.PersistentFlags().Lookup("dsn"))
	_ = viper.BindPFlag(config.KeyMigrationsDir, rootCmd.PersistentFlags().Lookup("migrations"))

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(initCmd, migrateCmd, statusCmd, verifyCmd, recreateCmd)
	_ = migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back (0 = all)")
	_ = migrateDownCmd.Flags().String("to", "", "Roll back to the specified migration (inclusive)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dbctl: %v\n", err)
		os.Exit(1)
	}
}

func runWithDatabase(fn func(*db.Database) error) error {
	dsn := config.DBDSN()
	if dsn == "" {
		if config.DBHost() == "" {
			return errors.New("database DSN must be provided via --dsn or the db_* settings")
		}
		var err error
		dsn, err = db.BuildDSN(config.DBConnection(), config.DBHost(), config.DBPort(),
			config.DBDatabase(), config.DBUsername(), config.DBPassword())
		if err != nil {
			return err
		}
	}
	database, err := db.NewDatabase(db.Config{
		Connection: config.DBConnection(),
		DSN:        dsn,
		Debug:      config.DBDebug(),
	})
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

// recreateScope drops the tables this tool owns. Application tables are the
// application's own migrations' business and are never dropped here.
func recreateScope(ctx context.Context, bunDB *bun.DB, scope string) error {
	switch scope {
	case "all":
		if _, err := bunDB.ExecContext(ctx, `DROP TABLE IF EXISTS releases, bun_migrations, bun_migration_locks`); err != nil {
			return err
		}
	case "ledger":
		if _, err := bunDB.ExecContext(ctx, `DROP TABLE IF EXISTS releases`); err != nil {
			return err
		}
	case "migrations":
		if _, err := bunDB.ExecContext(ctx, `DROP TABLE IF EXISTS bun_migrations, bun_migration_locks`); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown scope: %s", scope)
	}
	return dbmigrate.EnsureCurrent(ctx, bunDB, migrationsDir(), true)
}

func newManager(database *db.Database) (*dbmigrate.Manager, error) {
	return dbmigrate.NewManager(database.Bun(), migrationsDir())
}

func migrationsDir() string {
	dir := config.MigrationsDir()
	if dir == "" {
		dir = "migrations"
	}
	return dir
}
