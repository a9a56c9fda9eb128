package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/DreamCats/codepilot/internal/codepilot"
	"github.com/DreamCats/codepilot/internal/config"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, dataDir string, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var topK int
	var pathFilter, langFilter, mode string
	var jsonOutput, verbose bool

	fs.IntVar(&topK, "k", cfg.Search.DefaultTopK, "Number of results to return")
	fs.StringVar(&pathFilter, "path", "", "Only results whose path contains this substring")
	fs.StringVar(&langFilter, "lang", "", "Only results in this language (exact match)")
	fs.StringVar(&mode, "mode", "semantic", "Search mode: semantic | keyword")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&verbose, "v", false, "Verbose output (show scores)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    codepilot search [options] "<query>"

DESCRIPTION:
    Search indexed code. Semantic mode embeds the query and ranks
    chunks by vector similarity with a keyword boost; keyword mode
    runs a full-text query against the text index.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Natural language search
    codepilot search "where are jwt tokens validated"

    # Restrict to a path and language
    codepilot search "database retry" -path src/db -lang python

    # Full-text keyword search
    codepilot search "refreshToken" -mode keyword

    # JSON output for scripting
    codepilot search "error handling" -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := fs.Arg(0)

	svc := newService(cfg, dataDir)

	opts := codepilot.SearchOptions{
		K:            topK,
		PathContains: pathFilter,
		Lang:         langFilter,
	}

	var resp *codepilot.SearchResponse
	var err error
	switch mode {
	case "semantic":
		if _, err = svc.LoadFromDisk(); err != nil {
			log.Fatalf("Failed to load index: %v", err)
		}
		resp, err = svc.Search(context.Background(), query, opts)
	case "keyword":
		resp, err = svc.SearchKeyword(query, opts)
	default:
		log.Fatalf("Unknown search mode: %s (want semantic or keyword)", mode)
	}
	if err != nil {
		if errors.Is(err, codepilot.ErrIndexUnavailable) {
			fmt.Fprintln(os.Stderr, "No index found for this repository. Run `codepilot ingest` first.")
			os.Exit(1)
		}
		log.Fatalf("Search failed: %v", err)
	}

	if jsonOutput {
		outputJSON(resp, query)
	} else {
		outputText(resp, query, verbose)
	}
}

// outputText renders results as human-readable text
func outputText(resp *codepilot.SearchResponse, query string, verbose bool) {
	if len(resp.Results) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(resp.Results), query)

	for i, result := range resp.Results {
		fmt.Printf("%d. %s:%d-%d\n", i+1, result.Path, result.StartLine, result.EndLine)
		fmt.Printf("   Lang: %s\n", result.Lang)
		if verbose {
			fmt.Printf("   Score: %.3f\n", result.Score)
		}
		if result.Preview != "" {
			fmt.Println()
			for _, line := range strings.Split(result.Preview, "\n") {
				fmt.Printf("   | %s\n", line)
			}
		}
		fmt.Println()
	}

	fmt.Printf("(%s)\n", resp.Latency.Round(time.Millisecond))
}

// outputJSON renders results as JSON
func outputJSON(resp *codepilot.SearchResponse, query string) {
	output := map[string]any{
		"query":      query,
		"count":      len(resp.Results),
		"latency_ms": resp.Latency.Milliseconds(),
		"results":    resp.Results,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}
	fmt.Println(string(jsonData))
}
