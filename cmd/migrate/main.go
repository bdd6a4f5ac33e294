package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/repository/postgres"
	"github.com/joho/godotenv"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	list := flag.Bool("list", false, "list embedded migration files and exit")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	if *list {
		files, err := postgres.MigrationFiles()
		if err != nil {
			fail(err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("failed to load config: %w", err))
	}

	pg := cfg.History.Postgres
	fmt.Printf("Connecting to database at %s:%d...\n", pg.Host, pg.Port)

	if *down > 0 {
		err = postgres.RollbackMigrations(pg.DSN(), *down)
	} else {
		err = postgres.RunMigrations(pg.DSN())
	}
	if err != nil {
		fail(err)
	}
	fmt.Println("✅ migrations complete")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
	os.Exit(1)
}
