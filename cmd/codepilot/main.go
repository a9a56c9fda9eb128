package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/DreamCats/codepilot/cmd/codepilot/internal"
	"github.com/DreamCats/codepilot/internal/codepilot"
	"github.com/DreamCats/codepilot/internal/config"
	"github.com/DreamCats/codepilot/internal/embedding"
)

func main() {
	// A .env next to the invocation is a convenient place for API
	// keys; absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}

	configPath := ""
	repoPath := ""
	dataDir := ""
	args := os.Args[1:]

	for _, arg := range args {
		if arg == "-h" || arg == "-help" || arg == "--help" {
			internal.PrintUsage()
			os.Exit(0)
		}
		if arg == "-v" || arg == "-version" || arg == "--version" {
			fmt.Printf("codepilot version %s\n", internal.Version)
			os.Exit(0)
		}
	}

	validSubcommands := map[string]bool{
		"ingest": true,
		"search": true,
		"status": true,
	}

	subcommandIndex := -1
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && validSubcommands[arg] {
			subcommandIndex = i
			break
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(1)
	}

	globalFlags := args[:subcommandIndex]
	for i := 0; i < len(globalFlags); i++ {
		flag := globalFlags[i]
		switch {
		case flag == "-config" || flag == "--config":
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++
			}
		case flag == "-repo" || flag == "--repo":
			if i+1 < len(globalFlags) {
				repoPath = globalFlags[i+1]
				i++
			}
		case flag == "-data" || flag == "--data":
			if i+1 < len(globalFlags) {
				dataDir = globalFlags[i+1]
				i++
			}
		case strings.HasPrefix(flag, "-"):
			fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
			internal.PrintUsage()
			os.Exit(1)
		}
	}

	subcommand := args[subcommandIndex]
	subcommandArgs := args[subcommandIndex+1:]

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if config.IsConfigNotFound(err) {
			if subcommand == "ingest" {
				if notFoundErr, ok := err.(*config.ConfigNotFoundError); ok {
					created, createErr := config.WriteDefaultTemplate(notFoundErr.RequestedPath)
					if createErr != nil {
						fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
						fmt.Fprintf(os.Stderr, "Also failed to create default config at %s: %v\n\n", notFoundErr.RequestedPath, createErr)
						internal.PrintConfigExample()
						os.Exit(1)
					}
					if created {
						fmt.Fprintf(os.Stderr, "Created default config at %s\n", notFoundErr.RequestedPath)
					}
					fmt.Fprintln(os.Stderr, "Please set the embedding API key in the config file and rerun `codepilot ingest`.")
					os.Exit(1)
				}
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			internal.PrintConfigExample()
			os.Exit(1)
		}
		log.Fatalf("Failed to load config: %v\n", err)
	}

	repoRoot, err := internal.ResolveRepoRoot(repoPath)
	if err != nil {
		log.Fatalf("Failed to resolve repository root: %v\n", err)
	}

	if dataDir == "" {
		dataDir = cfg.Data.Dir
	}
	if dataDir == "" {
		dataDir, err = codepilot.DefaultDataDir(repoRoot)
		if err != nil {
			log.Fatalf("Failed to determine data directory: %v\n", err)
		}
	}

	if err := internal.SetupLogging(subcommand, repoRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize log file: %v\n", err)
	}

	switch subcommand {
	case "ingest":
		handleIngest(cfg, repoRoot, dataDir, subcommandArgs)
	case "search":
		handleSearch(cfg, dataDir, subcommandArgs)
	case "status":
		handleStatus(cfg, repoRoot, dataDir, subcommandArgs)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", subcommand)
		internal.PrintUsage()
		os.Exit(1)
	}
}

// newService builds the search service shared by the subcommands.
func newService(cfg *config.Config, dataDir string) *codepilot.Service {
	embedder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}
	source := codepilot.NewFSSource(cfg.Discovery)
	return codepilot.NewService(cfg, embedder, source, dataDir)
}
