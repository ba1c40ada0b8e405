package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/procurement-backend/pkg/bootstrap"
	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/migrate"
)

func main() {
	rawCmd := flag.String("cmd", string(migrate.CommandUp), "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	cmd, err := migrate.ParseCommand(*rawCmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch cmd {
	case migrate.CommandCreate:
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(2)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return
	case migrate.CommandValidate:
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	case migrate.CommandVersion:
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(2)
		}
	}

	proc := bootstrap.Start("migrate")
	logg := proc.Logger
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": proc.Config.App.Env,
		"cmd": string(cmd),
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, proc.Config.DB, logg)
	proc.Require(ctx, "database", err)
	defer proc.Close(ctx, "database", dbClient)

	sqlDB, err := dbClient.DB().DB()
	proc.Require(ctx, "sql database", err)

	logg.Info(ctx, "migrate ready")
	if cmd == migrate.CommandVersion {
		err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
	} else {
		err = migrate.Run(ctx, sqlDB, *dir, cmd)
	}
	if err != nil {
		proc.Fail(ctx, "migration failed", err)
	}
	logg.Info(ctx, "migration finished")
}
