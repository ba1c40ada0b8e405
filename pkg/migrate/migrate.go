package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Command is a cmd/migrate action.
type Command string

const (
	CommandUp       Command = "up"
	CommandDown     Command = "down"
	CommandStatus   Command = "status"
	CommandVersion  Command = "version"
	CommandCreate   Command = "create"
	CommandValidate Command = "validate"
)

var commands = []Command{CommandUp, CommandDown, CommandStatus, CommandVersion, CommandCreate, CommandValidate}

// ParseCommand accepts a command name case-insensitively.
func ParseCommand(raw string) (Command, error) {
	candidate := Command(strings.ToLower(strings.TrimSpace(raw)))
	for _, c := range commands {
		if c == candidate {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown migrate command %q", raw)
}

// NeedsDB reports whether the command talks to the database.
func (c Command) NeedsDB() bool {
	return c != CommandCreate && c != CommandValidate
}

// Run executes a goose command against db. The directory is validated
// before anything is applied.
func Run(ctx context.Context, db *sql.DB, dir string, command Command, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if !command.NeedsDB() || command == CommandVersion {
		return fmt.Errorf("command %q cannot be run through goose directly", command)
	}
	if err := ValidateDir(dir); err != nil {
		return err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, string(command), db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(strings.TrimSpace(targetVersion), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if err := ValidateDir(dir); err != nil {
		return err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
