package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/DreamCats/codepilot/internal/config"
	"github.com/DreamCats/codepilot/internal/store"
)

// handleStatus implements the status subcommand
func handleStatus(cfg *config.Config, repoRoot, dataDir string, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	runLimit := fs.Int("runs", 5, "Number of recent ingestion runs to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    codepilot status [options]

DESCRIPTION:
    Show the installed index for this repository and its recent
    ingestion runs.

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	svc := newService(cfg, dataDir)
	if _, err := svc.LoadFromDisk(); err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}

	status := svc.Status()
	fmt.Printf("Repository: %s\n", repoRoot)
	fmt.Printf("Data dir:   %s\n\n", dataDir)
	if !status.Indexed {
		fmt.Println("No index installed. Run `codepilot ingest` first.")
	} else {
		fmt.Println("Index:")
		fmt.Printf("   Chunks:    %6d\n", status.Chunks)
		fmt.Printf("   Dimension: %6d\n", status.Dimension)
	}

	db, err := store.Open(svc.Paths().RunsDBFile)
	if err != nil {
		// No history yet is normal before the first ingest.
		return
	}
	defer db.Close()

	runs, err := store.NewRunStore(db).List(*runLimit)
	if err != nil {
		log.Printf("Warning: failed to read run history: %v", err)
		return
	}
	if len(runs) == 0 {
		return
	}

	fmt.Println("\nRecent runs:")
	for _, run := range runs {
		fmt.Printf("   %s  %5d chunks  %4d files  %v\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.ChunksTotal, run.FilesRead, run.Duration.Round(time.Millisecond))
	}
}
