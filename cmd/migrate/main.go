package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/fablecraft/backend/internal/infrastructure/logger"
	"github.com/fablecraft/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `FableCraft database migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down -confirm         Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version after a failed run
  create <name> [desc]  Create the next numbered migration pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded files)
  -config string        Path to config.toml
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  FABLE_DATABASE_HOST, FABLE_DATABASE_PORT, FABLE_DATABASE_USER,
  FABLE_DATABASE_PASSWORD, FABLE_DATABASE_DBNAME, FABLE_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_cover_images "Cover art for projects"`

// migrator is the part of *migration.Migrator the database commands use
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
}

type dbCommand func(m migrator, args []string, log *zap.Logger) error

var dbCommands = map[string]dbCommand{
	"up": func(m migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m migrator, args []string, _ *zap.Logger) error {
		if !hasFlag(args, "confirm") {
			return errors.New("rolling back every migration drops all data, use 'migrate down -confirm'")
		}
		return m.Down()
	},
	"step": func(m migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(v))
	},
	"force": func(m migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m migrator, _ []string, log *zap.Logger) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	migrationsDir := flag.String("path", "", "Migrations directory (default: files embedded in the binary)")
	configPath := flag.String("config", "", "Path to config.toml")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { fmt.Fprintln(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	command, rest := args[0], args[1:]

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	src := migration.Source{Dir: *migrationsDir}
	log.Info("Migration CLI started", zap.String("command", command), zap.Stringer("source", src))

	switch command {
	case "create":
		if err := create(*migrationsDir, rest, log); err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		return
	case "list":
		if err := list(os.Stdout, src); err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		return
	}

	run, ok := dbCommands[command]
	if !ok {
		log.Error("Unknown command", zap.String("command", command))
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal("SQL migrations target postgres; sqlite databases use database.auto_migrate",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, src, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := run(m, rest, log); err != nil {
		log.Fatal("Migration "+command+" failed", zap.Error(err))
	}
}

func create(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return errors.New("migration name required: migrate create <name> [description]")
	}
	if dir == "" {
		dir = "migrations"
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(w io.Writer, src migration.Source) error {
	migrations, err := migration.ListMigrations(src.Files(os.DirFS))
	if err != nil {
		return err
	}
	if len(migrations) == 0 {
		_, err := fmt.Fprintln(w, "No migrations found")
		return err
	}
	for _, m := range migrations {
		suffix := ""
		if !m.HasDown {
			suffix = " (no down)"
		}
		if _, err := fmt.Fprintf(w, "  %06d  %s%s\n", m.Version, m.Name, suffix); err != nil {
			return err
		}
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == "-"+name || arg == "--"+name {
			return true
		}
	}
	return false
}
