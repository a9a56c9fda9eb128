package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DreamCats/codepilot/internal/codepilot"
	"github.com/DreamCats/codepilot/internal/config"
	"github.com/DreamCats/codepilot/internal/store"
)

// handleIngest implements the ingest subcommand
func handleIngest(cfg *config.Config, repoRoot, dataDir string, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	window := fs.Int("window", 0, "Chunk window size in lines (0 = configured default)")
	overlap := fs.Int("overlap", 0, "Overlapping lines between chunks (0 = configured default)")
	minLines := fs.Int("min-lines", 0, "Minimum non-blank lines per chunk (0 = configured default)")
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    codepilot ingest [options]

DESCRIPTION:
    Scan the repository, split its source files into line windows,
    embed every chunk and build the search index. A successful run
    atomically replaces the previous index; a failed run leaves it
    untouched.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Ingest the current directory
    codepilot ingest

    # Ingest a specific repository
    codepilot -repo /path/to/repo ingest

    # Smaller windows for dense code
    codepilot ingest -window 40 -overlap 10
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if *verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	if _, err := os.Stat(repoRoot); os.IsNotExist(err) {
		log.Fatalf("Repository path does not exist: %s", repoRoot)
	}

	fmt.Printf("Building index for: %s\n\n", repoRoot)

	svc := newService(cfg, dataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newEmbedProgress()
	stats, err := svc.Ingest(ctx, repoRoot, codepilot.IngestOptions{
		Window:   *window,
		Overlap:  *overlap,
		MinLines: *minLines,
	}, progress.report)
	progress.finish()
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}

	recordRun(svc.Paths().RunsDBFile, repoRoot, stats)

	fmt.Println()
	fmt.Println("Ingest completed successfully!")
	fmt.Printf("\nDuration: %v\n", stats.Duration.Round(time.Millisecond))
	fmt.Println("\nStatistics:")
	fmt.Printf("   Files scanned: %6d\n", stats.FilesScanned)
	fmt.Printf("   Files read:    %6d\n", stats.FilesRead)
	fmt.Printf("   Files skipped: %6d\n", stats.FilesSkipped)
	fmt.Printf("   Chunks:        %6d\n", stats.ChunksTotal)
	fmt.Printf("   Avg lines:     %8.1f\n", stats.AvgChunkLines)
}

// recordRun appends the run to the history database. History is an
// aid for the status command, so failure only warns.
func recordRun(dbPath, repoRoot string, stats *codepilot.IngestStats) {
	db, err := store.Open(dbPath)
	if err != nil {
		log.Printf("Warning: failed to open run history: %v", err)
		return
	}
	defer db.Close()

	err = store.NewRunStore(db).Record(&store.IngestRun{
		RepoRoot:      repoRoot,
		FilesScanned:  stats.FilesScanned,
		FilesRead:     stats.FilesRead,
		FilesSkipped:  stats.FilesSkipped,
		ChunksTotal:   stats.ChunksTotal,
		AvgChunkLines: stats.AvgChunkLines,
		Duration:      stats.Duration,
	})
	if err != nil {
		log.Printf("Warning: failed to record run: %v", err)
	}
}
