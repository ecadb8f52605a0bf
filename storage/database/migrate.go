package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/trezcool/goose"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies all pending migrations.
func Migrate(db *sql.DB) error {
	if err := goose.Up(db, migrations, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigration runs a goose command: up, up-by-one, up-to VERSION, down, down-to VERSION or redo.
func RunMigration(db *sql.DB, command string, args ...string) error {
	switch command {
	case "up":
		return goose.Up(db, migrations, migrationsDir)
	case "up-by-one":
		return goose.UpByOne(db, migrations, migrationsDir)
	case "up-to":
		version, err := versionArg(command, args)
		if err != nil {
			return err
		}
		return goose.UpTo(db, migrations, migrationsDir, version)
	case "down":
		return goose.Down(db, migrations, migrationsDir)
	case "down-to":
		version, err := versionArg(command, args)
		if err != nil {
			return err
		}
		return goose.DownTo(db, migrations, migrationsDir, version)
	case "redo":
		return goose.Redo(db, migrations, migrationsDir)
	default:
		return fmt.Errorf("%q: no such command", command)
	}
}

func versionArg(command string, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s must be of form: %s VERSION", command, command)
	}
	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("version must be a number (got '%s')", args[0])
	}
	return version, nil
}
