package main

import (
	"flag"
	"fmt"

	"github.com/sweepline-robotics/coverage.plan/internal/db"
	"github.com/sweepline-robotics/coverage.plan/internal/version"
)

// runCommand dispatches subcommands that bypass normal server startup.
// Returns true when a subcommand handled the invocation.
func runCommand(args []string) bool {
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "migrate":
		// The migrate subcommand takes the db path via the same -db flag.
		fs := flag.NewFlagSet("migrate", flag.ExitOnError)
		dbPath := fs.String("db", "trajectories.db", "Path to the sqlite database")
		if err := fs.Parse(args[1:]); err != nil {
			return true
		}
		db.RunMigrateCommand(fs.Args(), *dbPath)
		return true

	case "version":
		fmt.Printf("coverage-plan %s (%s) built %s\n", version.Version, version.GitSHA, version.BuildTime)
		return true
	}

	return false
}
