package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/erp/costledger/internal/infrastructure/logger"
	"github.com/erp/costledger/internal/infrastructure/migration"
	"github.com/erp/costledger/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// schemaCommand runs against an open migrator
type schemaCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var schemaCommands = map[string]schemaCommand{
	"up":   func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() },
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() },
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: version cannot be negative", errUsage)
		}
		return m.GoTo(uint(n))
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(n)
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
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
	var (
		migrationsPath string
		configFile     string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory; the embedded set is used when empty")
	flag.StringVar(&configFile, "config", "", "Config file (default: ./config.toml or /etc/costledger/config.toml)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(log, migrationsPath, configFile, args); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		if errors.Is(err, errUsage) {
			printUsage()
		}
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(log *zap.Logger, migrationsPath, configFile string, args []string) error {
	command, rest := args[0], args[1:]

	// create and list work on files and need no database
	switch command {
	case "create":
		if len(rest) == 0 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		description := ""
		if len(rest) > 1 {
			description = rest[1]
		}
		mf, err := migration.CreateMigration(resolvePath(migrationsPath), rest[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil

	case "list":
		entries, err := migration.ListMigrations(resolvePath(migrationsPath))
		if err != nil {
			return err
		}
		log.Info("Available migrations", zap.Int("count", len(entries)))
		for _, e := range entries {
			suffix := ""
			if !e.HasDown {
				suffix = " (no down migration)"
			}
			fmt.Printf("  - %s%s\n", e.Name, suffix)
		}
		return nil
	}

	exec, ok := schemaCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var m *migration.Migrator
	if migrationsPath == "" {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	} else {
		m, err = migration.New(db, resolvePath(migrationsPath), log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return exec(m, log, rest)
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, args[0])
	}
	return n, nil
}

// resolvePath finds the migrations directory for file based commands
func resolvePath(path string) string {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if execPath, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printUsage() {
	fmt.Println(`Cost ledger database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version after a failed migration was fixed
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: the set built into the binary;
                        create and list use ./migrations)
  -config string        Config file
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  COSTLEDGER_DATABASE_HOST, COSTLEDGER_DATABASE_PORT, COSTLEDGER_DATABASE_USER,
  COSTLEDGER_DATABASE_PASSWORD, COSTLEDGER_DATABASE_DBNAME, COSTLEDGER_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_card_barcode "Add barcode column to product cards"
  migrate version`)
}
